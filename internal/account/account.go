// Package account implements shop login by phone number and shop registration.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/docstore"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrLocationNotSelected = errors.New("please select your location first")
	ErrPhoneRegistered     = errors.New("a shop is already registered with this phone number")
)

type Outcome int

const (
	// OutcomeNotFound routes to registration.
	OutcomeNotFound Outcome = iota
	// OutcomeLocationMismatch means the shop belongs to another service area.
	OutcomeLocationMismatch
	OutcomeApproved
	OutcomePendingApproval
	OutcomeRejected
	OutcomeInactive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeLocationMismatch:
		return "location_mismatch"
	case OutcomeApproved:
		return "approved"
	case OutcomePendingApproval:
		return "pending_approval"
	case OutcomeRejected:
		return "rejected"
	case OutcomeInactive:
		return "inactive"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Message is the notice shown to the user.
func (o Outcome) Message() string {
	switch o {
	case OutcomeNotFound:
		return "No shop found with this phone number. Would you like to register?"
	case OutcomeLocationMismatch:
		return "This shop is registered in a different location. Please select the correct location."
	case OutcomePendingApproval:
		return "Your shop registration is pending admin approval. Please check back later."
	case OutcomeRejected:
		return "Your shop registration was rejected. Please contact support for more information."
	case OutcomeInactive:
		return "Your shop is currently inactive. Please contact support."
	}
	return ""
}

// EntersCatalog reports whether the outcome lets the user into the catalog.
func (o Outcome) EntersCatalog() bool {
	return o == OutcomeApproved
}

type Result struct {
	Outcome Outcome
	// Shop is the looked-up shop; nil for OutcomeNotFound.
	Shop *domain.Shop
}

// Session is the part of the session store the flow needs.
type Session interface {
	Location() (domain.Location, bool)
	SetLocation(ctx context.Context, loc domain.Location) error
	SetShop(ctx context.Context, shop domain.Shop) error
}

type RegistrationForm struct {
	ShopName  string
	OwnerName string
	Phone     string
	Email     string
	Address   string
}

func (f RegistrationForm) Validate() error {
	errs := validation.Errors{}
	errs.Add("shopName", validation.ShopName(f.ShopName))
	errs.Add("ownerName", validation.Name(f.OwnerName))
	errs.Add("phone", validation.Phone(f.Phone))
	errs.Add("email", validation.Email(strings.TrimSpace(f.Email)))
	errs.Add("address", validation.Address(f.Address))
	return errs.Err()
}

type Service struct {
	store      docstore.Store
	collection string
	session    Session
	log        *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store docstore.Store, shopsCollection string, session Session, log *slog.Logger) *Service {
	return &Service{
		store:      store,
		collection: shopsCollection,
		session:    session,
		log:        log.With(slog.String("component", "account")),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Login looks the shop up by phone and applies the location and status rules.
// Approved and pending shops become the session shop; every other outcome
// leaves the session untouched.
func (s *Service) Login(ctx context.Context, phone string) (Result, error) {
	if msg := validation.Phone(phone); msg != "" {
		return Result{}, validation.Errors{"phone": msg}
	}

	loc, ok := s.session.Location()
	if !ok {
		return Result{}, ErrLocationNotSelected
	}

	shop, err := s.findByPhone(ctx, phone)
	if err != nil {
		return Result{}, err
	}
	if shop == nil {
		return Result{Outcome: OutcomeNotFound}, nil
	}

	return s.decide(ctx, loc, *shop)
}

// ProbeExisting checks a phone number entered on the registration form. An
// incomplete number is ignored; a known number goes through the login rules
// so the user is never registered twice.
func (s *Service) ProbeExisting(ctx context.Context, phone string) (Result, error) {
	if !validation.IsPhone(phone) {
		return Result{Outcome: OutcomeNotFound}, nil
	}
	return s.Login(ctx, phone)
}

// Register creates a pending, inactive shop in the selected location and makes
// it the session shop. Invalid forms never reach the document store.
func (s *Service) Register(ctx context.Context, form RegistrationForm) (*domain.Shop, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	loc, ok := s.session.Location()
	if !ok {
		return nil, ErrLocationNotSelected
	}

	shop := domain.Shop{
		ID:         s.newID(),
		Name:       strings.TrimSpace(form.ShopName),
		OwnerName:  strings.TrimSpace(form.OwnerName),
		Phone:      validation.NormalizePhone(form.Phone),
		Email:      strings.TrimSpace(form.Email),
		Address:    strings.TrimSpace(form.Address),
		LocationID: loc.ID,
		Status:     domain.ShopStatusPending,
		IsActive:   false,
		CreatedAt:  s.now().UTC().Truncate(time.Millisecond),
	}

	raw, err := s.store.Create(ctx, s.collection, shop.ID, shop)
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, ErrPhoneRegistered
		}
		s.log.ErrorContext(ctx, "shop registration failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to register shop: %w", err)
	}

	created, err := decodeShop(s.collection, raw)
	if err != nil {
		return nil, err
	}

	if err := s.session.SetShop(ctx, created); err != nil {
		return nil, fmt.Errorf("shop %s registered but not saved to session: %w", created.ID, err)
	}

	s.log.InfoContext(ctx, "shop registered",
		slog.String("shop_id", created.ID),
		slog.String("location_id", created.LocationID))
	return &created, nil
}

// SwitchLocation is the remedy offered on a location mismatch: select another
// service area and drop the lookup.
func (s *Service) SwitchLocation(ctx context.Context, loc domain.Location) error {
	return s.session.SetLocation(ctx, loc)
}

func (s *Service) decide(ctx context.Context, loc domain.Location, shop domain.Shop) (Result, error) {
	result := Result{Shop: &shop}

	switch {
	case shop.LocationID != loc.ID:
		result.Outcome = OutcomeLocationMismatch
		return result, nil
	case shop.Status == domain.ShopStatusApproved && shop.IsActive:
		result.Outcome = OutcomeApproved
	case shop.Status == domain.ShopStatusPending:
		// pending shops are kept in the session so the owner can come back
		// without another lookup
		result.Outcome = OutcomePendingApproval
	case shop.Status == domain.ShopStatusRejected:
		result.Outcome = OutcomeRejected
		return result, nil
	default:
		result.Outcome = OutcomeInactive
		return result, nil
	}

	if err := s.session.SetShop(ctx, shop); err != nil {
		return Result{}, err
	}

	s.log.InfoContext(ctx, "shop logged in",
		slog.String("shop_id", shop.ID),
		slog.String("outcome", result.Outcome.String()))
	return result, nil
}

func (s *Service) findByPhone(ctx context.Context, phone string) (*domain.Shop, error) {
	q := docstore.Query{}.Where("phone", validation.NormalizePhone(phone))
	docs, err := s.store.List(ctx, s.collection, q)
	if err != nil {
		s.log.ErrorContext(ctx, "shop lookup failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to look up shop: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	shop, err := decodeShop(s.collection, docs[0])
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func decodeShop(collection string, raw bson.Raw) (domain.Shop, error) {
	var shop domain.Shop
	if err := docstore.Decode(raw, &shop); err != nil {
		return domain.Shop{}, err
	}
	if shop.ID == "" || shop.Phone == "" {
		return domain.Shop{}, docstore.Malformed(collection, shop.ID, "id and phone are required")
	}
	if !shop.Status.Valid() {
		return domain.Shop{}, docstore.Malformed(collection, shop.ID, fmt.Sprintf("unknown status %q", shop.Status))
	}
	return shop, nil
}
