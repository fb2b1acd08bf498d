package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	apperr "kosgate/internal/errors"
	"kosgate/internal/models"
)

// MaxProofSize caps proof-of-transfer uploads at 5 MB, the backend's limit.
const MaxProofSize = 5 << 20

var proofExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// UploadPaymentProof attaches a proof-of-transfer image to a pending
// payment. Size and type are checked here so an obviously bad file never
// costs a round-trip.
func (c *Client) UploadPaymentProof(ctx context.Context, paymentID int64, filename string, proof io.Reader) error {
	if err := validateProofName(filename); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("proof", filename)
	if err != nil {
		return fmt.Errorf("upload proof for payment %d: %w", paymentID, err)
	}
	if err := copyProof(part, proof); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload proof for payment %d: %w", paymentID, err)
	}

	if err := c.do(ctx, "POST", fmt.Sprintf("/payments/%d/proof", paymentID), &buf, w.FormDataContentType(), nil); err != nil {
		return fmt.Errorf("upload proof for payment %d: %w", paymentID, err)
	}
	return nil
}

// FetchReminders returns the tenant's upcoming and overdue payment
// reminders, a read model the backend maintains.
func (c *Client) FetchReminders(ctx context.Context) ([]models.WireReminder, error) {
	var reminders []models.WireReminder
	if err := c.getJSON(ctx, "/payments/reminders", &reminders); err != nil {
		return nil, fmt.Errorf("fetch reminders: %w", err)
	}
	return reminders, nil
}

func validateProofName(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !proofExtensions[ext] {
		return apperr.New(apperr.KindUpload, "proof must be a JPG or PNG image")
	}
	return nil
}

// copyProof streams the file into the multipart body, enforcing the size
// cap without buffering more than one extra byte.
func copyProof(dst io.Writer, src io.Reader) error {
	n, err := io.Copy(dst, io.LimitReader(src, MaxProofSize+1))
	if err != nil {
		return fmt.Errorf("read proof file: %w", err)
	}
	if n > MaxProofSize {
		return apperr.New(apperr.KindUpload, "proof image is larger than 5 MB")
	}
	return nil
}
