package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager is the in-memory owner of the active TradingSession. Parallel
// analyst workers publish through it, so every mutation happens under one
// mutex. Operations that need a session silently no-op when none is
// active.
//
// The per-session call-chain counter is keyed by (date, symbol): it
// increments monotonically per emitted chain and resets when the symbol
// changes.
type Manager struct {
	mu      sync.Mutex
	logger  *zap.Logger
	current *TradingSession
	history []*TradingSession

	seqDate   string
	seqSymbol string
	callSeq   int
}

// NewManager builds an empty session manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// StartSession opens a fresh session for the symbol and returns its id,
// of the form session_<yyyymmdd_HHMMSS>_<symbol>. An already-active
// session is ended first.
func (m *Manager) StartSession(symbol string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.endLocked()
	}

	now := time.Now()
	m.current = &TradingSession{
		SessionID:          fmt.Sprintf("session_%s_%s", now.Format("20060102_150405"), symbol),
		Symbol:             symbol,
		StartTime:          now,
		AnalysisReports:    make(map[AgentRole]*AnalysisReport),
		PerformanceMetrics: make(map[string]float64),
	}

	m.logger.Info("session started",
		zap.String("session_id", m.current.SessionID),
		zap.String("symbol", symbol))
	return m.current.SessionID
}

// EndSession seals the active session and moves it to history. No-op when
// no session is active.
func (m *Manager) EndSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endLocked()
}

func (m *Manager) endLocked() {
	if m.current == nil {
		return
	}
	m.current.EndTime = time.Now()
	m.history = append(m.history, m.current)
	m.logger.Info("session ended",
		zap.String("session_id", m.current.SessionID),
		zap.Duration("duration", m.current.EndTime.Sub(m.current.StartTime)))
	m.current = nil
}

// CurrentSessionID returns the active session id, or "" when none.
func (m *Manager) CurrentSessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.SessionID
}

// CurrentSymbol returns the active session's symbol, or "" when none.
func (m *Manager) CurrentSymbol() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Symbol
}

// AddAnalysisReport routes the report into the slot for its analyst role.
// A second publish for the same role silently overwrites the slot.
func (m *Manager) AddAnalysisReport(report *AnalysisReport) {
	if report == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	if _, exists := m.current.AnalysisReports[report.AnalystRole]; exists {
		m.logger.Warn("analysis report slot overwritten",
			zap.String("role", string(report.AnalystRole)),
			zap.String("symbol", report.Symbol))
	}
	m.current.AnalysisReports[report.AnalystRole] = report
}

// StartResearchDebate attaches a fresh research DebateState to the
// session and returns it. Returns nil when no session is active.
func (m *Manager) StartResearchDebate(participants []AgentRole, maxRounds int) *DebateState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	m.current.ResearchDebate = &DebateState{
		Participants: participants,
		MaxRounds:    maxRounds,
	}
	return m.current.ResearchDebate
}

// StartRiskDebate attaches a fresh risk DebateState to the session and
// returns it. Returns nil when no session is active.
func (m *Manager) StartRiskDebate(participants []AgentRole, maxRounds int) *DebateState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	m.current.RiskDebate = &DebateState{
		Participants: participants,
		MaxRounds:    maxRounds,
	}
	return m.current.RiskDebate
}

// AddDebateMessage appends to the selected debate state in temporal
// order and advances its current round. No-op without a session or
// without the matching debate.
func (m *Manager) AddDebateMessage(kind DebateKind, msg DebateMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	state := m.current.ResearchDebate
	if kind == DebateRisk {
		state = m.current.RiskDebate
	}
	if state == nil {
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	state.Messages = append(state.Messages, msg)
	if msg.Round > state.CurrentRound {
		state.CurrentRound = msg.Round
	}
}

// SealDebate records the debate outcome. No-op without the debate.
func (m *Manager) SealDebate(kind DebateKind, finalDecision string, consensus bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	state := m.current.ResearchDebate
	if kind == DebateRisk {
		state = m.current.RiskDebate
	}
	if state == nil {
		return
	}
	state.FinalDecision = finalDecision
	state.ConsensusReached = consensus
}

// SetTradingDecision publishes the trading-stage artifact.
func (m *Manager) SetTradingDecision(decision *TradingDecision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.TradingDecision = decision
}

// SetRiskManagementDecision publishes the risk-stage artifact.
func (m *Manager) SetRiskManagementDecision(decision *RiskDecision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.RiskManagementDecision = decision
}

// SetFinalRecommendation publishes the full-mode final artifact.
func (m *Manager) SetFinalRecommendation(decision *InvestmentDecision) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.FinalRecommendation = decision
}

// RecordTrade appends to the session's executed-trade log.
func (m *Manager) RecordTrade(trade map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.ExecutedTrades = append(m.current.ExecutedTrades, trade)
}

// NextCallSeq returns the next call-chain sequence number for the
// (today, symbol) scope, starting at 1. The counter resets when the
// symbol changes.
func (m *Manager) NextCallSeq(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	if m.seqDate != today || m.seqSymbol != symbol {
		m.seqDate = today
		m.seqSymbol = symbol
		m.callSeq = 0
	}
	m.callSeq++
	return m.callSeq
}

// Snapshot returns a shallow copy of the active session for consistent
// reads, or nil when none is active. Published artifacts are immutable,
// so sharing their pointers is safe.
func (m *Manager) Snapshot() *TradingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	copied := *m.current
	copied.AnalysisReports = make(map[AgentRole]*AnalysisReport, len(m.current.AnalysisReports))
	for role, report := range m.current.AnalysisReports {
		copied.AnalysisReports[role] = report
	}
	return &copied
}

// History returns the ended sessions, oldest first.
func (m *Manager) History() []*TradingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*TradingSession, len(m.history))
	copy(out, m.history)
	return out
}
