package studio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/grimbang/nailart/pkg/logger"
)

// CreditWallet is the slice of the billing store the generation path needs:
// reserve a credit up front, refund it when the work produced nothing.
type CreditWallet interface {
	DebitCredits(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)
	AddCredits(ctx context.Context, userID uuid.UUID, amount int64) error
}

// Uploader is the object storage surface for generated images.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service orchestrates thumbnail generation: validate, reserve a credit,
// record the attempt, walk the backend fallback ladder, store the image.
type Service struct {
	cfg      Config
	store    Store
	wallet   CreditWallet
	uploader Uploader
	backends []BackendPolicy
	log      *slog.Logger
}

func NewService(cfg Config, store Store, wallet CreditWallet, uploader Uploader, backends []BackendPolicy, log *slog.Logger) *Service {
	if store == nil {
		panic("studio: store is required")
	}
	if wallet == nil {
		panic("studio: credit wallet is required")
	}
	if uploader == nil {
		panic("studio: uploader is required")
	}
	if len(backends) == 0 {
		panic("studio: at least one backend is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		wallet:   wallet,
		uploader: uploader,
		backends: backends,
		log:      log,
	}
}

// Generate runs one request end to end and returns the completed record.
//
// The credit is debited before the pending record exists: a request that
// cannot pay never reaches a backend. If every backend fails, or the image
// cannot be stored, the record is marked failed and the credit refunded.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, prompt string, images []ImageInput) (*Thumbnail, error) {
	prompt = strings.TrimSpace(prompt)
	refs, err := validateRequest(prompt, images)
	if err != nil {
		return nil, err
	}

	ok, err := s.wallet.DebitCredits(ctx, userID, GenerationCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	thumb := &Thumbnail{
		ID:     uuid.New(),
		UserID: userID,
		Prompt: prompt,
		Title:  titleFromPrompt(prompt),
		Status: StatusGenerating,
	}
	thumb.StoragePath = fmt.Sprintf("%s/%s.png", userID, thumb.ID)
	if err := s.store.Create(ctx, thumb); err != nil {
		s.refund(ctx, userID)
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenerationTimeout)
	defer cancel()

	image, err := s.generateWithFallback(genCtx, thumb.ID, prompt, refs)
	if err != nil {
		s.fail(ctx, thumb, userID)
		return nil, errors.Join(ErrGenerationFailed, err)
	}

	url, err := s.uploader.Upload(ctx, thumb.StoragePath, image, "image/png")
	if err != nil {
		// Pixels without a durable copy count as failure.
		s.fail(ctx, thumb, userID)
		return nil, err
	}

	if err := s.store.SetCompleted(ctx, thumb.ID, url); err != nil {
		return nil, err
	}
	thumb.Status = StatusCompleted
	thumb.ImageURL = url
	return thumb, nil
}

// generateWithFallback walks the ladder in order, spending each backend's
// attempt budget before moving on, and stops at the first success. Context
// expiry aborts the whole walk.
func (s *Service) generateWithFallback(ctx context.Context, thumbID uuid.UUID, prompt string, refs []ReferenceImage) ([]byte, error) {
	var lastErr error
	for _, policy := range s.backends {
		for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			image, err := policy.Backend.Generate(ctx, prompt, refs)
			if err == nil {
				return image, nil
			}
			lastErr = err
			s.log.WarnContext(ctx, "generation attempt failed",
				logger.ThumbnailID(thumbID),
				logger.Backend(policy.Backend.Name()),
				logger.Attempt(attempt),
				logger.Error(err))

			if attempt < policy.MaxAttempts && policy.Backoff > 0 {
				select {
				case <-time.After(policy.Backoff):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
	}
	return nil, lastErr
}

func (s *Service) fail(ctx context.Context, thumb *Thumbnail, userID uuid.UUID) {
	if err := s.store.SetFailed(ctx, thumb.ID); err != nil {
		s.log.ErrorContext(ctx, "failed to mark thumbnail failed",
			logger.ThumbnailID(thumb.ID), logger.Error(err))
	}
	s.refund(ctx, userID)
}

func (s *Service) refund(ctx context.Context, userID uuid.UUID) {
	if err := s.wallet.AddCredits(ctx, userID, GenerationCost); err != nil {
		s.log.ErrorContext(ctx, "failed to refund credit",
			logger.UserID(userID), logger.Error(err))
	}
}

// List returns the user's completed thumbnails, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Thumbnail, error) {
	return s.store.ListCompleted(ctx, userID, MaxListedRecords)
}

// Delete removes the record and its stored object. A storage delete failure
// is logged but does not resurrect the record.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	thumb, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, userID, id); err != nil {
		return err
	}

	if thumb.Status == StatusCompleted && thumb.StoragePath != "" {
		if err := s.uploader.Delete(ctx, thumb.StoragePath); err != nil {
			s.log.ErrorContext(ctx, "failed to delete stored image",
				logger.ThumbnailID(id), logger.Error(err))
		}
	}
	return nil
}

func validateRequest(prompt string, images []ImageInput) ([]ReferenceImage, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return nil, ErrPromptTooLong
	}
	if len(images) > MaxImages {
		return nil, ErrTooManyImages
	}

	refs := make([]ReferenceImage, 0, len(images))
	for _, img := range images {
		// Size is estimated from the encoded length before decoding so an
		// oversized payload is rejected without allocating for it.
		if len(img.Data)*3/4 > MaxImageBytes {
			return nil, ErrImageTooLarge
		}
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, errors.Join(ErrInvalidImage, err)
		}
		mime := img.MimeType
		if mime == "" {
			mime = "image/png"
		}
		refs = append(refs, ReferenceImage{Data: data, MimeType: mime})
	}
	return refs, nil
}

// titleFromPrompt derives a short display title from the first words of the
// prompt. Truncation counts runes so multibyte prompts are never cut
// mid-character.
func titleFromPrompt(prompt string) string {
	const maxTitle = 80
	if utf8.RuneCountInString(prompt) <= maxTitle {
		return prompt
	}
	head := string([]rune(prompt)[:maxTitle])
	if cut := strings.LastIndex(head, " "); cut > 0 {
		return head[:cut]
	}
	return head
}
