package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/b0ase/path402/apps/feescope/internal/console"
	"github.com/b0ase/path402/apps/feescope/internal/db"
	"github.com/b0ase/path402/apps/feescope/internal/fees"
	"github.com/b0ase/path402/apps/feescope/internal/format"
	"github.com/b0ase/path402/apps/feescope/internal/value"
	"github.com/b0ase/path402/apps/feescope/internal/wallet"
)

const maxIngestBody = 16 << 20

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("GET /blfees.json", s.handleBlockFeesJSON)
	mux.HandleFunc("POST /api/fees", s.handleIngest)
	mux.HandleFunc("GET /api/fees/heights", s.handleFeeHeights)
	mux.HandleFunc("GET /api/fees/chart", s.handleFeeChart)

	mux.HandleFunc("GET /api/value/encode", s.handleValueEncode)
	mux.HandleFunc("GET /api/value/decode", s.handleValueDecode)

	mux.HandleFunc("GET /api/wallets", s.handleWallets)
	mux.HandleFunc("GET /api/wallets/{name}", s.handleWalletGet)
	mux.HandleFunc("PUT /api/wallets/{name}", s.handleWalletPut)
	mux.HandleFunc("DELETE /api/wallets/{name}", s.handleWalletDelete)
	mux.HandleFunc("POST /api/wallets/{name}/select", s.handleWalletSelect)
	mux.HandleFunc("POST /api/wallets/{name}/watch", s.handleWalletWatch)

	mux.HandleFunc("GET /api/headers/status", s.handleHeadersStatus)
	mux.HandleFunc("GET /api/headers/tip", s.handleHeadersTip)
	mux.HandleFunc("GET /api/headers/verify", s.handleHeadersVerify)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeErr picks the status code from the error's sentinel.
func writeErr(w http.ResponseWriter, err error) {
	code := 500
	switch {
	case errors.Is(err, db.ErrNotFound):
		code = 404
	case errors.Is(err, value.ErrParse),
		errors.Is(err, fees.ErrInvalidRecord),
		errors.Is(err, fees.ErrUnknownMode),
		errors.Is(err, wallet.ErrInvalidAddress):
		code = 400
	case errors.Is(err, console.ErrBehindTip):
		code = 409
	}
	writeError(w, code, err.Error())
}

// queryInt reads an integer query parameter, def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// queryBool accepts 1/0, true/false and the like.
func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	nodeID := s.daemon.NodeID()
	if len(nodeID) > 16 {
		nodeID = nodeID[:16]
	}
	writeJSON(w, map[string]interface{}{
		"status":    "ok",
		"version":   "0.1.0",
		"node_id":   nodeID,
		"uptime_ms": s.daemon.Uptime().Milliseconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, _ := db.CountBlockFees()
	feeStatus := map[string]interface{}{
		"stored": count,
	}
	if latest, err := db.GetLatestFeeHeight(); err == nil {
		feeStatus["latest_height"] = latest
	}

	uptime := s.daemon.Uptime()
	writeJSON(w, map[string]interface{}{
		"node_id":   s.daemon.NodeID(),
		"uptime_ms": uptime.Milliseconds(),
		"uptime":    format.Period(uptime),
		"fees":      feeStatus,
		"chart":     s.console.Policy(),
		"headers":   s.daemon.HeaderSyncStatus(),
	})
}

// handleBlockFeesJSON serves the raw records of one block, [[w,f,key],...].
func (s *Server) handleBlockFeesJSON(w http.ResponseWriter, r *http.Request) {
	height, err := queryInt(r, "height", -1)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	if height < 0 {
		if height, err = db.GetLatestFeeHeight(); err != nil {
			writeErr(w, err)
			return
		}
	}
	bf, err := db.GetBlockFees(height)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, bf.Records)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingestToken != "" && r.Header.Get("Authorization") != "Bearer "+s.ingestToken {
		writeError(w, 401, "invalid or missing ingest token")
		return
	}

	q := r.URL.Query()
	if q.Get("height") == "" {
		writeError(w, 400, "height query param required")
		return
	}
	height, err := queryInt(r, "height", 0)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		writeError(w, 400, "failed to read body: "+err.Error())
		return
	}
	records, err := fees.ParseRecords(body)
	if err != nil {
		writeErr(w, err)
		return
	}

	bf := &db.BlockFees{
		Height:  height,
		Hash:    q.Get("hash"),
		Size:    size,
		MinedBy: q.Get("mined_by"),
		Records: records,
	}
	if err := s.console.Ingest(bf); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"height":  height,
		"records": len(records),
	})
}

func (s *Server) handleFeeHeights(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 144)
	if err != nil || limit <= 0 {
		writeError(w, 400, "limit must be a positive integer")
		return
	}
	list, err := db.ListBlockFees(limit)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if list == nil {
		list = []db.BlockFeesSummary{}
	}
	writeJSON(w, list)
}

func (s *Server) handleFeeChart(w http.ResponseWriter, r *http.Request) {
	height, err := queryInt(r, "height", -1)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	mode, err := fees.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeErr(w, err)
		return
	}
	view, err := s.console.Chart(height, mode, queryBool(r, "clip"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Server) handleValueEncode(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("amount")
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, 400, "amount must be an integer number of satoshis")
		return
	}
	writeJSON(w, map[string]interface{}{
		"amount": amount,
		"text":   value.Encode(amount, queryBool(r, "pad")),
	})
}

func (s *Server) handleValueDecode(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	amount, err := value.Decode(text)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"text":   text,
		"amount": amount,
	})
}

type walletSummary struct {
	Name      string `json:"name"`
	Selected  bool   `json:"selected"`
	Addresses int    `json:"addresses"`
	UpdatedAt int64  `json:"updated_at"`
}

type walletDetail struct {
	Name      string         `json:"name"`
	Selected  bool           `json:"selected"`
	UpdatedAt int64          `json:"updated_at"`
	Entries   []wallet.Entry `json:"entries"`
}

func (s *Server) handleWallets(w http.ResponseWriter, r *http.Request) {
	books, err := db.ListAddressBooks()
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	out := make([]walletSummary, 0, len(books))
	for _, b := range books {
		out = append(out, walletSummary{
			Name:      b.Name,
			Selected:  b.Selected,
			Addresses: len(wallet.ParseList(b.Content)),
			UpdatedAt: b.UpdatedAt,
		})
	}
	writeJSON(w, out)
}

func (s *Server) handleWalletGet(w http.ResponseWriter, r *http.Request) {
	b, err := db.GetAddressBook(r.PathValue("name"))
	if err != nil {
		writeErr(w, err)
		return
	}
	entries := wallet.ParseList(b.Content)
	if entries == nil {
		entries = []wallet.Entry{}
	}
	writeJSON(w, walletDetail{Name: b.Name, Selected: b.Selected, UpdatedAt: b.UpdatedAt, Entries: entries})
}

// handleWalletPut replaces a list with the request body. Invalid lines are
// dropped and the stored text is normalised.
func (s *Server) handleWalletPut(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, 400, "wallet name required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, 400, "failed to read body: "+err.Error())
		return
	}
	entries := wallet.ParseList(string(body))
	if err := db.PutAddressBook(name, wallet.FormatList(entries)); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"name":      name,
		"addresses": len(entries),
	})
}

func (s *Server) handleWalletDelete(w http.ResponseWriter, r *http.Request) {
	if err := db.DeleteAddressBook(r.PathValue("name")); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	w.WriteHeader(204)
}

func (s *Server) handleWalletSelect(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := db.SelectAddressBook(name); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"selected": name})
}

// handleWalletWatch adds the address of a WIF key to a list. Only the
// address is stored.
func (s *Server) handleWalletWatch(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	var req struct {
		WIF   string `json:"wif"`
		Label string `json:"label"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON body")
		return
	}
	addr, err := wallet.WatchAddress(req.WIF)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}

	var entries []wallet.Entry
	b, err := db.GetAddressBook(name)
	switch {
	case err == nil:
		entries = wallet.ParseList(b.Content)
	case !errors.Is(err, db.ErrNotFound):
		writeError(w, 500, err.Error())
		return
	}
	for _, e := range entries {
		if e.Addr == addr {
			writeJSON(w, map[string]interface{}{"addr": addr, "added": false})
			return
		}
	}
	entries = append(entries, wallet.Entry{Addr: addr, Label: req.Label})
	if err := db.PutAddressBook(name, wallet.FormatList(entries)); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"addr": addr, "added": true})
}

func (s *Server) handleHeadersStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.daemon.HeaderSyncStatus())
}

func (s *Server) handleHeadersTip(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.HeaderSyncStatus()
	writeJSON(w, map[string]interface{}{
		"highest_height": status["highest_height"],
		"chain_tip":      status["chain_tip"],
	})
}

func (s *Server) handleHeadersVerify(w http.ResponseWriter, r *http.Request) {
	root := r.URL.Query().Get("root")
	heightStr := r.URL.Query().Get("height")
	if root == "" || heightStr == "" {
		writeError(w, 400, "root and height query params required")
		return
	}

	var height int
	if _, err := fmt.Sscanf(heightStr, "%d", &height); err != nil {
		writeError(w, 400, "height must be an integer")
		return
	}

	valid, err := s.daemon.ValidateMerkleRoot(root, height)
	if err != nil {
		writeError(w, 503, err.Error())
		return
	}

	writeJSON(w, map[string]interface{}{
		"root":   root,
		"height": height,
		"valid":  valid,
	})
}
