package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"railbooker/internal/domain/entity"
	"railbooker/internal/domain/repository"
	"railbooker/pkg/logger"
)

// probeTopK is how many of the best-ranked candidates get a live
// seat-layout probe.
const probeTopK = 3

// TripSelector picks the train to book. Advertised online counts can be
// stale, so the preferred policy probes the top candidates' live layouts
// concurrently and commits to the first one that qualifies.
type TripSelector struct {
	api     repository.BookingAPI
	matcher *SeatMatcher
	logger  logger.Logger
}

// NewTripSelector creates a new trip selector
func NewTripSelector(api repository.BookingAPI, matcher *SeatMatcher, log logger.Logger) *TripSelector {
	return &TripSelector{
		api:     api,
		matcher: matcher,
		logger:  log,
	}
}

// SelectedTrip is a probe winner: the trip plus the seats its live layout
// yielded, so the orchestrator does not fetch the layout twice.
type SelectedTrip struct {
	Trip  *entity.Trip
	Seats []entity.CandidateSeat
}

// FilterByName keeps trains whose label contains any of the requested
// names, case-insensitively. An empty filter keeps everything.
func (s *TripSelector) FilterByName(trains []entity.Train, names []string) []entity.Train {
	if len(names) == 0 {
		return trains
	}
	var out []entity.Train
	for _, train := range trains {
		label := strings.ToUpper(train.Label())
		for _, name := range names {
			if strings.Contains(label, strings.ToUpper(strings.TrimSpace(name))) {
				out = append(out, train)
				break
			}
		}
	}
	return out
}

// SelectStatic walks trains in document order and accepts the first whose
// advertised online count for seatClass covers needed. No network calls.
// The booking flow uses SelectByProbing, which checks live layouts instead
// of trusting advertised counts; this is the fallback policy when probing
// is not wanted.
func (s *TripSelector) SelectStatic(trains []entity.Train, seatClass string, needed int) *entity.Trip {
	for i := range trains {
		train := &trains[i]
		offer := train.OfferFor(seatClass)
		if offer == nil {
			continue
		}
		online := offer.SeatCounts.OnlineCount()
		if online >= needed {
			s.logger.Info("Found train with enough advertised seats",
				"train", train.Label(),
				"online", online)
			return entity.TripFromTrain(train, offer)
		}
		s.logger.Info("Skipping train, not enough advertised seats",
			"train", train.Label(),
			"online", online,
			"needed", needed)
	}
	return nil
}

type probeCandidate struct {
	train  *entity.Train
	offer  *entity.SeatTypeOffer
	online int
}

// SelectByProbing ranks trains by advertised count for seatClass, probes
// the top candidates' live layouts concurrently and resolves to the first
// that yields needed seats. Race semantics: the winner is whichever
// qualifying probe completes first, not the best-ranked one. Once a winner
// is recorded the remaining probes are signalled to stop; in-flight
// requests finish on their own and their results are discarded.
func (s *TripSelector) SelectByProbing(ctx context.Context, token string, trains []entity.Train, seatClass string, needed int, preferredCoaches, preferredSeats []string) (*SelectedTrip, error) {
	var candidates []probeCandidate
	for i := range trains {
		train := &trains[i]
		if offer := train.OfferFor(seatClass); offer != nil {
			candidates = append(candidates, probeCandidate{
				train:  train,
				offer:  offer,
				online: offer.SeatCounts.OnlineCount(),
			})
		}
	}
	if len(candidates) == 0 {
		return nil, &entity.InsufficientResultsError{
			Op:     "trip selection",
			Needed: needed,
			Reasons: []string{
				fmt.Sprintf("no train offers seat class %q", seatClass),
			},
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].online > candidates[j].online
	})
	if len(candidates) > probeTopK {
		candidates = candidates[:probeTopK]
	}

	s.logger.Info("Probing candidate trains for live availability",
		"candidates", len(candidates),
		"needed", needed)

	probeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		won     atomic.Bool
		mu      sync.Mutex
		winner  *SelectedTrip
		reasons []string
		detail  json.RawMessage
	)

	g := &errgroup.Group{}
	g.SetLimit(workerLimit(len(candidates)))

	for i := range candidates {
		cand := candidates[i]
		g.Go(func() error {
			if won.Load() {
				return nil
			}

			coaches, err := s.api.SeatLayout(probeCtx, token, cand.offer.TripID, cand.offer.TripRouteID)
			if err != nil {
				s.logger.Warn("Seat layout probe failed",
					"train", cand.train.Label(),
					"error", err)
				mu.Lock()
				reasons = append(reasons, fmt.Sprintf("%s: %v", cand.train.Label(), err))
				if d := entity.ErrorDetail(err); d != nil {
					detail = d
				}
				mu.Unlock()
				return nil
			}

			seats := s.matcher.FindAvailable(coaches, needed, preferredCoaches, preferredSeats)
			if len(seats) < needed {
				s.logger.Info("Candidate train does not qualify",
					"train", cand.train.Label(),
					"liveSeats", len(seats),
					"needed", needed)
				mu.Lock()
				reasons = append(reasons, fmt.Sprintf("%s: %d of %d live seats", cand.train.Label(), len(seats), needed))
				mu.Unlock()
				return nil
			}

			if won.CompareAndSwap(false, true) {
				mu.Lock()
				winner = &SelectedTrip{
					Trip:  entity.TripFromTrain(cand.train, cand.offer),
					Seats: seats,
				}
				mu.Unlock()
				s.logger.Info("Probe winner recorded",
					"train", cand.train.Label(),
					"seats", entity.SeatNumbers(seats))
				cancel()
			}
			return nil
		})
	}
	g.Wait()

	if winner != nil {
		return winner, nil
	}
	return nil, &entity.InsufficientResultsError{
		Op:      "trip selection",
		Needed:  needed,
		Reasons: reasons,
		Detail:  detail,
	}
}
