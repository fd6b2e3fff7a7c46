package service

import (
	"context"
	"fmt"

	"travel_backoffice_backend/internal/agency"
	"travel_backoffice_backend/internal/events"
	"travel_backoffice_backend/internal/wizard/domain"
	"travel_backoffice_backend/internal/wizard/transport"
	"travel_backoffice_backend/platform/apperr"
)

// Submit runs the full submission pipeline: cupo guard, passenger and
// service validation, sequential document uploads, payload assembly, and the
// single create or update call. Any failure leaves the draft intact so the
// user can correct and resubmit; success discards the session.
func (s *Service) Submit(ctx context.Context, token, sessionID string) (*transport.SubmitResponse, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var (
		saleID  string
		updated bool
	)
	err = sess.WithDraft(func(draft *domain.SaleDraft, _ *domain.CandidatePool) error {
		if !draft.CanSubmit() {
			return apperr.Validation("submission is only available from the final step")
		}
		if err := draft.CheckCupo(); err != nil {
			return err
		}
		if err := draft.ValidatePassengers(); err != nil {
			return err
		}
		if err := draft.ValidateServices(); err != nil {
			return err
		}

		if err := s.uploadPendingDocuments(ctx, token, draft); err != nil {
			return err
		}

		payload := assemblePayload(draft)

		var ref *agency.SaleRef
		var submitErr error
		if draft.IsEdit() {
			ref, submitErr = s.api.UpdateSale(ctx, token, draft.SaleID, payload)
			updated = true
		} else {
			ref, submitErr = s.api.CreateSale(ctx, token, payload)
		}
		if submitErr != nil {
			s.log.SubmissionResult(sessionID, draft.SaleID, updated, submitErr)
			return apperr.Submission("the agency backend rejected the sale", submitErr)
		}

		saleID = ref.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.SubmissionResult(sessionID, saleID, updated, nil)
	s.publishSubmission(ctx, sess.Draft, sessionID, saleID, updated)
	s.registry.Delete(sessionID)

	return &transport.SubmitResponse{SaleID: saleID, Updated: updated}, nil
}

// uploadPendingDocuments uploads every locally attached file, one at a time.
// The first failure aborts the whole submission naming the provider; no sale
// is created with missing documents. References already uploaded in earlier
// attempts stay merged on their assignments and are not re-sent.
func (s *Service) uploadPendingDocuments(ctx context.Context, token string, draft *domain.SaleDraft) error {
	for _, svc := range draft.Services {
		for i := range svc.Providers {
			assignment := &svc.Providers[i]
			for len(assignment.Pending) > 0 {
				doc := assignment.Pending[0]
				ref, err := s.api.UploadProviderDocument(ctx, token, assignment.ProviderID, doc.FileName, doc.ContentType, doc.Content)
				if err != nil {
					s.log.UploadError(assignment.ProviderID, doc.FileName, err)
					return apperr.UploadFailure(
						fmt.Sprintf("document upload failed for provider %s", providerLabel(assignment)),
						err,
					)
				}
				assignment.Documents = append(assignment.Documents, domain.DocumentRef{
					ID:       ref.ID,
					URL:      ref.URL,
					FileName: ref.FileName,
				})
				assignment.Pending = assignment.Pending[1:]
			}
		}
	}
	return nil
}

func providerLabel(assignment *domain.ProviderAssignment) string {
	if assignment.Name != "" {
		return assignment.Name
	}
	return assignment.ProviderID
}

// assemblePayload flattens the draft into the agency's composite sale shape,
// nesting each provider's document references under its assignment within
// its service instance.
func assemblePayload(draft *domain.SaleDraft) agency.SalePayload {
	payload := agency.SalePayload{
		PrimaryClientID:    draft.Primary.ID,
		DestinationCity:    draft.Destination.City,
		DestinationCountry: draft.Destination.Country,
		PriceOriginal:      draft.Price.OriginalAmount,
		PriceCurrency:      string(draft.Price.OriginalCurrency),
		PriceExchangeRate:  draft.Price.ExchangeRate,
		PriceBase:          draft.Price.BaseAmount,
		SaleCurrency:       string(draft.SaleCurrency),
		SaleExchangeRate:   draft.SaleRate,
	}
	if draft.Cupo != nil {
		payload.CupoID = draft.Cupo.CupoID
	}

	payload.Passengers = append(payload.Passengers, agency.SalePassenger{
		ID:      draft.Primary.ID,
		Name:    draft.Primary.Name,
		Surname: draft.Primary.Surname,
		DNI:     draft.Primary.DNI,
	})
	for _, companion := range draft.Companions {
		payload.Passengers = append(payload.Passengers, agency.SalePassenger{
			ID:      companion.ID,
			Name:    companion.Name,
			Surname: companion.Surname,
			DNI:     companion.DNI,
		})
	}

	for _, svc := range draft.Services {
		entry := agency.SaleService{
			TemplateID:         svc.TemplateID,
			ServiceInfo:        svc.ServiceInfo,
			CheckIn:            svc.CheckIn,
			CheckOut:           svc.CheckOut,
			DestinationCity:    svc.Destination.City,
			DestinationCountry: svc.Destination.Country,
			OriginalAmount:     svc.Cost.OriginalAmount,
			OriginalCurrency:   string(svc.Cost.OriginalCurrency),
			ExchangeRate:       svc.Cost.ExchangeRate,
			BaseAmount:         svc.Cost.BaseAmount,
		}
		for i, assignment := range svc.Providers {
			entry.Providers = append(entry.Providers, agency.SaleProvider{
				ProviderID: assignment.ProviderID,
				IsDefault:  i == 0,
				Documents:  toAgencyRefs(assignment.Documents),
			})
		}
		payload.Services = append(payload.Services, entry)
	}
	return payload
}

func toAgencyRefs(refs []domain.DocumentRef) []agency.DocumentRef {
	out := make([]agency.DocumentRef, 0, len(refs))
	for _, ref := range refs {
		out = append(out, agency.DocumentRef{ID: ref.ID, URL: ref.URL, FileName: ref.FileName})
	}
	return out
}

func (s *Service) publishSubmission(ctx context.Context, draft *domain.SaleDraft, sessionID, saleID string, updated bool) {
	if updated {
		s.bus.Publish(ctx, events.SaleUpdated{
			BaseEvent:      events.NewBaseEvent(),
			SaleID:         saleID,
			SessionID:      sessionID,
			PassengerCount: draft.SeatsRequested(),
			ServiceCount:   len(draft.Services),
		})
		return
	}

	created := events.SaleCreated{
		BaseEvent:      events.NewBaseEvent(),
		SaleID:         saleID,
		SessionID:      sessionID,
		PassengerCount: draft.SeatsRequested(),
		ServiceCount:   len(draft.Services),
	}
	if draft.Cupo != nil {
		created.CupoID = draft.Cupo.CupoID
	}
	s.bus.Publish(ctx, created)
}
