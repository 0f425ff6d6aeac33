package contacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	emailverifier "github.com/AfterShip/email-verifier"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lukemcguire/leadcrawl/result"
)

var verifier = emailverifier.NewVerifier()

// Options tunes Materialize.
type Options struct {
	Logger zerolog.Logger
	Now    func() time.Time // defaults to time.Now
	NewID  func() string    // defaults to uuid.NewString
}

// Materialize writes every email in res to store and returns the IDs of the
// contacts it created or found, in email order.
//
// Unknown emails become new contacts. Known contacts only gain a company
// when they have none; no other field is overwritten.
func Materialize(ctx context.Context, store Store, res *result.CrawlResult, company Company, opts Options) ([]string, error) {
	if res == nil {
		return nil, nil
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	logger := opts.Logger

	ids := make([]string, 0, len(res.Emails))
	for _, rec := range res.SortedEmails() {
		if err := ctx.Err(); err != nil {
			return ids, err
		}

		syntax := verifier.ParseAddress(rec.Email)
		if !syntax.Valid {
			logger.Warn().Str("email", rec.Email).Msg("Skipping email with invalid syntax")
			continue
		}

		existing, err := store.FindByEmail(ctx, rec.Email)
		switch {
		case err == nil:
			if existing.CompanyID == "" && company.ID != "" {
				if err := store.SetCompany(ctx, existing.ID, company.ID); err != nil {
					return ids, fmt.Errorf("attach company to %s: %w", rec.Email, err)
				}
				logger.Debug().Str("email", rec.Email).Str("company_id", company.ID).Msg("Attached company to existing contact")
			}
			ids = append(ids, existing.ID)
			continue
		case !errors.Is(err, ErrNotFound):
			return ids, fmt.Errorf("look up %s: %w", rec.Email, err)
		}

		contact := newContact(rec, company, opts)
		contact.RoleBased = verifier.IsRoleAccount(strings.ToLower(syntax.Username))
		if err := store.Create(ctx, contact); err != nil {
			return ids, fmt.Errorf("create contact %s: %w", rec.Email, err)
		}
		logger.Info().Str("email", rec.Email).Str("contact_id", contact.ID).Msg("Created contact")
		ids = append(ids, contact.ID)
	}
	return ids, nil
}

func newContact(rec result.EmailRecord, company Company, opts Options) *Contact {
	first, last := SplitName(rec.Name)
	if first == "" {
		first, last = nameFromEmail(rec.Email)
	}
	return &Contact{
		ID:               opts.NewID(),
		FirstName:        first,
		LastName:         last,
		Email:            rec.Email,
		Position:         rec.JobTitle,
		CompanyID:        company.ID,
		OrganizationName: company.Name,
		Source:           SourceScraped,
		Status:           StatusNew,
		SourceURL:        rec.SourceURL,
		CreatedAt:        opts.Now().UTC(),
	}
}

// SplitName splits a full name on its first run of whitespace.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	first, last, _ = strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

// nameFromEmail derives a name from a "first.last" local part. Any other
// local part yields no name.
func nameFromEmail(email string) (first, last string) {
	local, _, _ := strings.Cut(email, "@")
	if f, l, ok := strings.Cut(local, "."); ok && f != "" && l != "" && !strings.Contains(l, ".") {
		return capitalize(f), capitalize(l)
	}
	return "", ""
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
