// Package console assembles what the fee console shows: stored fee sets
// turned into charts, annotated with chain headers, plus the ingest gate.
// The HTTP API and the MCP tools both go through it.
package console

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/b0ase/path402/apps/feescope/internal/chartcache"
	"github.com/b0ase/path402/apps/feescope/internal/db"
	"github.com/b0ase/path402/apps/feescope/internal/fees"
	"github.com/b0ase/path402/apps/feescope/internal/format"
	"github.com/b0ase/path402/apps/feescope/internal/headers"
	"github.com/b0ase/path402/apps/feescope/internal/value"
)

// ErrBehindTip rejects fee sets of blocks too far below the chain tip.
var ErrBehindTip = errors.New("block too far behind chain tip")

// HeaderSource is the part of the header sync the console reads.
type HeaderSource interface {
	TipHeight() int
	Header(height int) (*headers.BlockHeader, error)
}

// HeaderNote annotates a chart with the block's chain header.
type HeaderNote struct {
	Hash      string `json:"hash"`
	Timestamp int    `json:"timestamp"`
	Time      string `json:"time"`
}

// ChartView is one block's fee chart as served to the dashboard.
type ChartView struct {
	Height      int               `json:"height"`
	Hash        string            `json:"hash"`
	Size        int               `json:"size"`
	SizeText    string            `json:"size_text"`
	MinedBy     string            `json:"mined_by"`
	Mode        string            `json:"mode"`
	Clip        bool              `json:"clip"`
	RecordCount int               `json:"record_count"`
	TotalFee    string            `json:"total_fee"`
	Points      []fees.CurvePoint `json:"points"`
	Stats       fees.Stats        `json:"stats"`
	Display     fees.Display      `json:"display"`
	Ceiling     float64           `json:"ceiling"`
	Header      *HeaderNote       `json:"header,omitempty"`
}

// Service serves charts and accepts fee sets. hdrs may be nil, in which
// case nothing is gated on the tip and charts carry no header note.
type Service struct {
	cache  *chartcache.Cache
	policy fees.RangePolicy
	window int
	hdrs   HeaderSource
}

func New(cache *chartcache.Cache, policy fees.RangePolicy, window int, hdrs HeaderSource) *Service {
	return &Service{cache: cache, policy: policy, window: window, hdrs: hdrs}
}

// Policy returns the chart range policy in use.
func (s *Service) Policy() fees.RangePolicy {
	return s.policy
}

// Chart builds the chart of the fee set at height. A negative height
// selects the latest stored set.
func (s *Service) Chart(height int, mode fees.Mode, clip bool) (*ChartView, error) {
	if height < 0 {
		latest, err := db.GetLatestFeeHeight()
		if err != nil {
			return nil, fmt.Errorf("latest fee height: %w", err)
		}
		height = latest
	}

	gen := s.cache.Generation()
	bf, err := db.GetBlockFees(height)
	if err != nil {
		return nil, fmt.Errorf("fees at height %d: %w", height, err)
	}

	chart := s.cache.Get(height, mode)
	if chart == nil {
		chart, err = fees.Distribution(bf.Records, mode)
		if err != nil {
			return nil, fmt.Errorf("chart at height %d: %w", height, err)
		}
		s.cache.PutIfCurrent(height, mode, gen, chart)
	}

	var total uint64
	for _, r := range chart.Records {
		total += r.Fee
	}

	view := &ChartView{
		Height:      bf.Height,
		Hash:        bf.Hash,
		Size:        bf.Size,
		SizeText:    format.BigNum(float64(bf.Size)) + "B",
		MinedBy:     bf.MinedBy,
		Mode:        mode.String(),
		Clip:        clip,
		RecordCount: len(chart.Records),
		Points:      chart.Points,
		Stats:       chart.Stats,
		Display:     chart.Stats.Display(),
		Ceiling:     s.policy.Ceiling(chart.Stats, clip),
		Header:      s.headerNote(height),
	}
	if total <= math.MaxInt64 {
		view.TotalFee = value.String(int64(total))
	}
	return view, nil
}

func (s *Service) headerNote(height int) *HeaderNote {
	if s.hdrs == nil {
		return nil
	}
	h, err := s.hdrs.Header(height)
	if err != nil {
		log.Printf("[fees] Header lookup at %d failed: %v", height, err)
		return nil
	}
	if h == nil {
		return nil
	}
	return &HeaderNote{
		Hash:      h.Hash,
		Timestamp: h.Timestamp,
		Time:      format.Time(time.Unix(int64(h.Timestamp), 0).UTC(), false),
	}
}

// Ingest stores a block's fee set. Once the tip is known, blocks more than
// window below it are refused: they arrive while the node is catching up.
func (s *Service) Ingest(bf *db.BlockFees) error {
	if bf.Height < 0 {
		return fmt.Errorf("%w: negative height", fees.ErrInvalidRecord)
	}
	if s.hdrs != nil && s.window > 0 {
		if tip := s.hdrs.TipHeight(); tip >= 0 && bf.Height < tip-s.window {
			return fmt.Errorf("%w: height %d, tip %d", ErrBehindTip, bf.Height, tip)
		}
	}
	if err := db.InsertBlockFees(bf); err != nil {
		return fmt.Errorf("store fees at height %d: %w", bf.Height, err)
	}
	s.cache.Invalidate(bf.Height)
	log.Printf("[fees] Stored %d records for block %d", len(bf.Records), bf.Height)
	return nil
}

// Expire drops fee sets more than retain blocks below tip.
func (s *Service) Expire(tip, retain int) (int, error) {
	if tip < 0 || retain <= 0 {
		return 0, nil
	}
	n, err := db.ExpireBlockFees(tip - retain)
	if err != nil {
		return 0, fmt.Errorf("expire fees: %w", err)
	}
	if n > 0 {
		log.Printf("[fees] Expired %d fee sets below height %d", n, tip-retain)
	}
	return n, nil
}
