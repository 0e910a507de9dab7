package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sushiDelivery/internal/geo"
	"sushiDelivery/models"
)

// DefaultResolveTimeout bounds a whole resolution when none is configured.
const DefaultResolveTimeout = 20 * time.Second

// ResolverConfig configures a Resolver. Zero values fall back to defaults.
type ResolverConfig struct {
	Box         geo.BoundingBox
	DefaultCity string
	Timeout     time.Duration
	Cache       Cache
}

// Resolver runs the tiered lookup against a Provider.
type Resolver struct {
	provider    Provider
	cache       Cache
	box         geo.BoundingBox
	defaultCity string
	timeout     time.Duration
	log         logrus.FieldLogger
}

// NewResolver creates a Resolver.
func NewResolver(p Provider, cfg ResolverConfig, log logrus.FieldLogger) *Resolver {
	r := &Resolver{
		provider:    p,
		cache:       cfg.Cache,
		box:         cfg.Box,
		defaultCity: cfg.DefaultCity,
		timeout:     cfg.Timeout,
		log:         log,
	}
	if r.box == (geo.BoundingBox{}) {
		r.box = geo.PuertoMontt
	}
	if r.defaultCity == "" {
		r.defaultCity = "Puerto Montt"
	}
	if r.timeout <= 0 {
		r.timeout = DefaultResolveTimeout
	}
	return r
}

type tier struct {
	name  string
	query Query
}

// tiers lists the lookups for a normalized address, highest priority first.
func tiers(a models.Address) []tier {
	var out []tier
	if a.Number != "" {
		numbered := a.Number + " " + a.Street
		out = append(out, tier{"1", Query{Street: numbered, City: a.City, Country: "Chile"}})
		if a.Sector != "" {
			out = append(out, tier{"1b", Query{Street: numbered, City: a.City, County: a.Sector, Country: "Chile"}})
		}
		out = append(out, tier{"1c", Query{Street: a.Street, City: a.City, Country: "Chile"}})
	}

	parts := []string{strings.TrimSpace(a.Street + " " + a.Number)}
	if a.Sector != "" {
		parts = append(parts, a.Sector)
	}
	parts = append(parts, a.City, "Los Lagos", "Chile")
	out = append(out,
		tier{"2", Query{Text: strings.Join(parts, ", ")}},
		tier{"3", Query{Text: a.Street + ", " + a.City + ", Chile"}},
	)
	return out
}

// Resolve returns the best location for addr, or nil when nothing acceptable
// was found. An error is returned only when ctx itself is done.
func (r *Resolver) Resolve(ctx context.Context, addr models.Address) (*models.ResolvedLocation, error) {
	a := addr.Normalized(r.defaultCity)
	if a.Street == "" {
		return nil, nil
	}
	log := r.log.WithField("address", a.Key())
	key := a.Key()

	if r.cache != nil {
		loc, err := r.cache.Get(ctx, key)
		if err != nil {
			log.WithError(err).Warn("geocode cache read failed")
		} else if loc != nil {
			return loc, nil
		}
	}

	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	for _, t := range tiers(a) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if tctx.Err() != nil {
			log.WithField("timeout", r.timeout).Warn("address resolution timed out")
			return nil, nil
		}
		cands, err := r.provider.Search(tctx, t.query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil, ctxErr
			}
			log.WithError(err).WithField("tier", t.name).Warn("geocode tier failed, trying next")
			continue
		}
		cands = r.inBox(cands)
		if len(cands) == 0 {
			continue
		}
		loc := pick(cands, a)
		log.WithFields(logrus.Fields{"tier": t.name, "precision": loc.Precision}).Info("address resolved")
		if r.cache != nil {
			if err := r.cache.Set(ctx, key, loc); err != nil {
				log.WithError(err).Warn("geocode cache write failed")
			}
		}
		return loc, nil
	}
	log.Info("address not found")
	return nil, nil
}

func (r *Resolver) inBox(cands []Candidate) []Candidate {
	out := cands[:0:0]
	for _, c := range cands {
		if r.box.Contains(geo.Point{Lat: c.Lat, Lng: c.Lng}) {
			out = append(out, c)
		}
	}
	return out
}

// pick applies exact > road > fallback to a non-empty, already filtered set.
func pick(cands []Candidate, a models.Address) *models.ResolvedLocation {
	if a.Number != "" {
		for _, c := range cands {
			if strings.TrimSpace(c.HouseNumber) == a.Number {
				return &models.ResolvedLocation{Lat: c.Lat, Lng: c.Lng, Precision: models.PrecisionExact, MatchedNumber: true}
			}
		}
	}
	street := strings.ToLower(a.Street)
	for _, c := range cands {
		if c.Road != "" && strings.Contains(strings.ToLower(c.Road), street) {
			return &models.ResolvedLocation{Lat: c.Lat, Lng: c.Lng, Precision: models.PrecisionRoad}
		}
	}
	c := cands[0]
	return &models.ResolvedLocation{Lat: c.Lat, Lng: c.Lng, Precision: models.PrecisionFallback}
}

// ManualPlacement builds a location for a pin placed or dragged by an operator.
func ManualPlacement(lat, lng float64) (*models.ResolvedLocation, error) {
	if !(geo.Point{Lat: lat, Lng: lng}).Valid() {
		return nil, errors.New("invalid coordinate")
	}
	return &models.ResolvedLocation{Lat: lat, Lng: lng, Precision: models.PrecisionManual}, nil
}
