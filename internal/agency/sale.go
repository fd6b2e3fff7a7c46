package agency

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
)

// UploadProviderDocument uploads one contract file and returns its stored
// reference. Uploads run on the long-timeout client; large PDFs routinely
// exceed the default request timeout.
func (c *Client) UploadProviderDocument(ctx context.Context, token, providerID, fileName, contentType string, content []byte) (*DocumentRef, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("providerId", providerID); err != nil {
		return nil, fmt.Errorf("write provider field: %w", err)
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	var out DocumentRef
	err = c.do(ctx, c.uploadClient, token, http.MethodPost, "/api/upload/provider-document", &buf, writer.FormDataContentType(), &out)
	if err != nil {
		return nil, err
	}
	if out.FileName == "" {
		out.FileName = fileName
	}
	return &out, nil
}

// CreateSale submits a new composite sale.
func (c *Client) CreateSale(ctx context.Context, token string, payload SalePayload) (*SaleRef, error) {
	var out SaleRef
	if err := c.postJSON(ctx, token, "/api/sales/service-template-flow", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSale replaces an existing sale with the re-assembled payload.
func (c *Client) UpdateSale(ctx context.Context, token, saleID string, payload SalePayload) (*SaleRef, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode sale payload: %w", err)
	}

	var out SaleRef
	path := "/api/sales/" + url.PathEscape(saleID)
	if err := c.do(ctx, c.httpClient, token, http.MethodPut, path, bytes.NewReader(encoded), "application/json", &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		out.ID = saleID
	}
	return &out, nil
}
