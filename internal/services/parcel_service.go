package services

import (
	"context"
	"errors"
	"fmt"
	"parcel-pricing-service/internal/domain"
	"parcel-pricing-service/internal/platform/obs"
	"parcel-pricing-service/internal/ports"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Caller identifies who a request runs on behalf of. RequestID correlates log lines.
type Caller struct {
	RequestID string
	SessionID string
}

type RegisterParcelInput struct {
	Name     string
	Weight   decimal.Decimal
	TypeID   int64
	ValueUSD decimal.Decimal
}

// ParcelService is the application boundary for registering and reading parcels.
// It never prices on the write path; the recomputation sweep does.
type ParcelService struct {
	repo ports.ParcelRepository
	log  *zap.Logger
}

func NewParcelService(repo ports.ParcelRepository, log *zap.Logger) *ParcelService {
	return &ParcelService{repo: repo, log: log.Named("parcel_service")}
}

func (s *ParcelService) logger(c Caller) *zap.Logger {
	return s.log.With(zap.String("request_id", c.RequestID), zap.String("session_id", c.SessionID))
}

func (s *ParcelService) Register(ctx context.Context, c Caller, in RegisterParcelInput) (p *domain.Parcel, err error) {
	defer obs.Time(s.logger(c), "parcels.register")(&err)

	if c.SessionID == "" {
		return nil, &domain.ValidationError{Field: "session_id", Reason: "must not be empty"}
	}

	pt, err := s.repo.GetTypeByID(ctx, in.TypeID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, &domain.ValidationError{Field: "type_id", Reason: fmt.Sprintf("unknown parcel type %d", in.TypeID)}
	}
	if err != nil {
		return nil, fmt.Errorf("register parcel: resolve type: %w", err)
	}

	parcel, err := domain.NewParcel(in.Name, in.Weight, pt, in.ValueUSD, c.SessionID)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, parcel)
	if err != nil {
		return nil, fmt.Errorf("register parcel: %w", err)
	}
	return saved, nil
}

func (s *ParcelService) Get(ctx context.Context, c Caller, parcelID int64) (p *domain.Parcel, err error) {
	defer obs.Time(s.logger(c).With(zap.Int64("parcel_id", parcelID)), "parcels.get")(&err)

	p, err = s.repo.GetByID(ctx, parcelID, c.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get parcel %d: %w", parcelID, err)
	}
	return p, nil
}

func (s *ParcelService) List(ctx context.Context, c Caller, filter ports.ParcelFilter) (ps []*domain.Parcel, err error) {
	defer obs.Time(s.logger(c), "parcels.list")(&err)

	ps, err = s.repo.ListBySession(ctx, c.SessionID, filter)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	return ps, nil
}

func (s *ParcelService) ListTypes(ctx context.Context, c Caller) (types []domain.ParcelType, err error) {
	defer obs.Time(s.logger(c), "parcel_types.list")(&err)

	types, err = s.repo.GetTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parcel types: %w", err)
	}
	return types, nil
}
