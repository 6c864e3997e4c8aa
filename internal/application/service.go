package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Samuel871933/buylav2-sub001/internal/contracts"
	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

// RecordVisit applies last-click-wins attribution for a visitor. The
// visitor id is assigned once on first sight and lives on its own clock;
// the attribution window restarts on every ref click.
func (s *Service) RecordVisit(ctx context.Context, in RecordVisitInput) (RecordVisitResult, error) {
	in.AmbassadorRef = strings.TrimSpace(in.AmbassadorRef)
	if in.AmbassadorRef == "" {
		return RecordVisitResult{}, domain.ErrInvalidInput
	}
	visitorID := strings.TrimSpace(in.VisitorID)
	if visitorID == "" {
		visitorID = "vis_" + uuid.NewString()
	}
	if err := s.attribution.EnsureVisitor(ctx, visitorID); err != nil {
		return RecordVisitResult{}, err
	}
	if err := s.attribution.RecordVisit(ctx, visitorID, in.AmbassadorRef); err != nil {
		return RecordVisitResult{}, err
	}
	return RecordVisitResult{VisitorID: visitorID}, nil
}

// GetAttribution returns the visitor's current ambassador ref, or
// domain.ErrNotFound when none exists or the window has lapsed.
func (s *Service) GetAttribution(ctx context.Context, visitorID string) (string, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return "", domain.ErrInvalidInput
	}
	return s.attribution.GetAttribution(ctx, visitorID)
}

// TrackClick resolves the program's outbound URL, records the click and
// returns the URL to redirect to. Unattributed visitors are tolerated:
// the click is still recorded for merchant-traffic analytics but can
// never yield an attributed conversion. An unknown or inactive program
// reports merchant-unknown instead of a partial redirect.
func (s *Service) TrackClick(ctx context.Context, in TrackClickInput) (TrackClickResult, error) {
	in.ProgramID = strings.TrimSpace(in.ProgramID)
	if in.ProgramID == "" {
		return TrackClickResult{}, domain.ErrInvalidInput
	}
	visitorID := strings.TrimSpace(in.VisitorID)
	if visitorID == "" {
		visitorID = "vis_" + uuid.NewString()
	}
	if err := s.attribution.EnsureVisitor(ctx, visitorID); err != nil {
		return TrackClickResult{}, err
	}

	ref := strings.TrimSpace(in.AmbassadorRef)
	if ref == "" {
		stored, err := s.attribution.GetAttribution(ctx, visitorID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return TrackClickResult{}, err
		}
		ref = stored
	}

	program, err := s.programs.GetByID(ctx, in.ProgramID)
	if err != nil {
		return TrackClickResult{}, err
	}
	if !program.Active {
		return TrackClickResult{}, domain.ErrNotFound
	}

	productURL := strings.TrimSpace(in.ProductURL)
	if productURL != "" {
		productURL = domain.CleanProductURL(productURL, program.Network)
	}
	resolved := domain.ResolveRedirectURL(program, ref, productURL)

	now := s.nowFn()
	click := domain.ClickEvent{
		ClickID:       "click_" + uuid.NewString(),
		VisitorID:     visitorID,
		AmbassadorRef: ref,
		ProgramID:     program.ProgramID,
		ResolvedURL:   resolved.URL,
		SubIDSent:     resolved.SubIDSent,
		ProductURL:    productURL,
		CreatedAt:     now,
	}
	if err := s.clicks.Append(ctx, click); err != nil {
		return TrackClickResult{}, err
	}
	_ = s.enqueueEvent(ctx, domain.EventClickTracked, contracts.ClickTrackedPayload{
		ClickID:       click.ClickID,
		VisitorID:     click.VisitorID,
		AmbassadorRef: click.AmbassadorRef,
		ProgramID:     click.ProgramID,
		SubIDSent:     click.SubIDSent,
		TrackedAt:     now.Format(timeFormat),
	}, click.ProgramID)

	return TrackClickResult{
		ClickID:     click.ClickID,
		VisitorID:   visitorID,
		RedirectURL: resolved.URL,
		SubIDSent:   resolved.SubIDSent,
	}, nil
}

// ListPrograms is the read surface the storefront uses to render the
// merchant directory.
func (s *Service) ListPrograms(ctx context.Context) ([]domain.AffiliateProgram, error) {
	return s.programs.List(ctx)
}
