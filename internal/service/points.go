package service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/activity-registry/internal/points"
	"github.com/aanand-mishra/activity-registry/internal/types"
	"github.com/aanand-mishra/activity-registry/internal/validation"
)

// PointsService prices catalog registrations.
type PointsService struct {
	catalog   *points.Catalog
	validator *validation.Validator
	log       *slog.Logger
}

// Catalog returns the catalog entries, optionally limited to one eixo.
func (s *PointsService) Catalog(eixo points.Eixo) (res types.Result[[]points.CatalogEntry]) {
	defer guard(s.log, "points.catalog", &res)

	if eixo == "" {
		return types.OK(s.catalog.Entries())
	}
	if !eixo.Valid() {
		return types.Fail[[]points.CatalogEntry](types.CodeValidation, fmt.Sprintf("unknown eixo %q", eixo))
	}
	return types.OK(s.catalog.ByEixo(eixo))
}

// Summarize validates every request, builds the registrations and
// aggregates them. A missing units count means one unit. All problems are
// reported together, with fields prefixed by the request position.
func (s *PointsService) Summarize(reqs []types.RegistrationRequest) (res types.Result[points.Summary]) {
	defer guard(s.log, "points.summarize", &res)

	var errs []types.FieldError
	regs := make([]points.Registration, 0, len(reqs))

	for i, req := range reqs {
		prefix := fmt.Sprintf("registrations[%d].", i)
		req.EntryID = strings.TrimSpace(req.EntryID)
		if req.Units == 0 {
			req.Units = 1
		}

		vr := s.validator.ValidateRegistration(req)
		for _, fe := range vr.Errors {
			errs = append(errs, types.FieldError{Field: prefix + fe.Field, Message: fe.Message})
		}
		if !vr.Valid {
			continue
		}

		entry, ok := s.catalog.Lookup(req.EntryID)
		if !ok {
			errs = append(errs, types.FieldError{Field: prefix + "entryId", Message: fmt.Sprintf("unknown catalog entry %s", req.EntryID)})
			continue
		}

		reg, err := points.NewRegistration(entry, req.Units)
		if err != nil {
			errs = append(errs, types.FieldError{Field: prefix + "units", Message: err.Error()})
			continue
		}
		reg.Year = req.Year
		reg.Link = req.Link
		regs = append(regs, reg)
	}

	if len(errs) > 0 {
		return invalid[points.Summary](types.ValidationResult{Errors: errs})
	}

	summary := points.Aggregate(regs)
	s.log.Debug("points summarized", slog.Int("registrations", len(regs)), slog.Int("total", summary.Total))
	return types.OK(summary)
}
