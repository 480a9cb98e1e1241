package api

import (
	"context"
	"errors"
	"strings"

	"github.com/mboxlabs/mailctl/internal/client"
)

var ErrEmailIDRequired = errors.New("api: email id required")

// Analysis is the AI analysis result for one email.
type Analysis struct {
	EmailID             string   `json:"email_id"`
	Summary             string   `json:"summary,omitempty"`
	Categories          []string `json:"categories,omitempty"`
	PriorityScore       int      `json:"priority_score"`
	Phishing            bool     `json:"is_phishing"`
	PhishingScore       float64  `json:"phishing_score"`
	SensitiveData       bool     `json:"sensitive_data"`
	AutoReplySuggestion string   `json:"auto_reply_suggestion,omitempty"`
	ProcessingSeconds   float64  `json:"processing_time"`
}

// AnalysisStats summarizes the analysis subsystem's history.
type AnalysisStats struct {
	TotalAnalyzed     int64   `json:"total_analyzed"`
	PhishingDetected  int64   `json:"phishing_detected"`
	AvgProcessSeconds float64 `json:"avg_processing_time"`
}

// AnalysisHealth reports per-dependency health of the analysis subsystem.
type AnalysisHealth struct {
	Status    string `json:"status"`
	Model     string `json:"model"`
	Inference string `json:"inference"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
}

type analyzePayload struct {
	Mailbox string `json:"mailbox"`
	EmailID string `json:"email_id"`
	Force   bool   `json:"force,omitempty"`
}

// AnalyzeEmail requests analysis of one email. Force bypasses the
// backend's result cache.
func (s *Service) AnalyzeEmail(ctx context.Context, mailbox, emailID string, force bool) (*Analysis, error) {
	if strings.TrimSpace(mailbox) == "" {
		return nil, ErrAddressRequired
	}
	if strings.TrimSpace(emailID) == "" {
		return nil, ErrEmailIDRequired
	}
	data, err := s.client.Invoke(ctx, client.MethodCreate, "analysis/run", analyzePayload{
		Mailbox: mailbox,
		EmailID: emailID,
		Force:   force,
	})
	if err != nil {
		return nil, err
	}
	var res Analysis
	if err := decode(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) AnalysisStatistics(ctx context.Context) (*AnalysisStats, error) {
	data, err := s.client.Invoke(ctx, client.MethodRead, "analysis/stats", nil)
	if err != nil {
		return nil, err
	}
	var res AnalysisStats
	if err := decode(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) AnalysisHealthCheck(ctx context.Context) (*AnalysisHealth, error) {
	data, err := s.client.Invoke(ctx, client.MethodRead, "analysis/health", nil)
	if err != nil {
		return nil, err
	}
	var res AnalysisHealth
	if err := decode(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
