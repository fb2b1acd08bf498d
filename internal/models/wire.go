package models

// Raw wire shapes as the kos backend sends them. Field names follow the
// backend's Indonesian schema; they are converted to the canonical types by
// the projector and never used outside the upstream/projector boundary.

type WireRoom struct {
	ID            int64   `json:"id"`
	NomorKamar    string  `json:"nomor_kamar"`
	TipeKamar     string  `json:"tipe_kamar"`
	Floor         int     `json:"floor"`
	HargaPerBulan float64 `json:"harga_per_bulan"`
	ImageURL      string  `json:"image_url"`
}

type WirePayment struct {
	ID               int64   `json:"id"`
	PemesananID      int64   `json:"pemesanan_id"`
	JumlahBayar      float64 `json:"jumlah_bayar"`
	MetodePembayaran string  `json:"metode_pembayaran"`
	TipePembayaran   string  `json:"tipe_pembayaran"`
	StatusPembayaran string  `json:"status_pembayaran"`
	BuktiTransfer    string  `json:"bukti_transfer"`
	TanggalBayar     string  `json:"tanggal_bayar"`
}

// WireBooking mirrors the backend's booking response. The backend happens to
// send payments under both "pembayaran" and "payments" depending on the
// endpoint; Payments() folds that inconsistency into one list.
type WireBooking struct {
	ID              int64         `json:"id"`
	Kamar           WireRoom      `json:"kamar"`
	TanggalMulai    string        `json:"tanggal_mulai"`
	DurasiSewa      int           `json:"durasi_sewa"`
	StatusPemesanan string        `json:"status_pemesanan"`
	TotalBayar      float64       `json:"total_bayar"`
	StatusBayar     string        `json:"status_bayar"`
	Pembayaran      []WirePayment `json:"pembayaran"`
	PaymentsAlt     []WirePayment `json:"payments"`
}

// Payments returns the payment list regardless of which field the backend
// used, preserving the wire order (chronological, most recent last).
func (b *WireBooking) Payments() []WirePayment {
	if len(b.Pembayaran) > 0 {
		return b.Pembayaran
	}
	return b.PaymentsAlt
}

type WireReminder struct {
	ID                int64   `json:"id"`
	PembayaranID      int64   `json:"pembayaran_id"`
	JumlahBayar       float64 `json:"jumlah_bayar"`
	TanggalJatuhTempo string  `json:"tanggal_jatuh_tempo"`
	StatusReminder    string  `json:"status_reminder"`
	IsSent            bool    `json:"is_sent"`
}
