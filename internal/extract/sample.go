package extract

import (
	"time"

	"github.com/shorelinehq/shoreline/internal/models"
)

// SampleDataNote flags a placeholder batch so callers and UI can always
// tell synthetic records from extracted ones.
const SampleDataNote = "Note: This is sample data. To show your actual records, ensure CSV download is enabled in the share settings."

// SampleSessions returns the fixed placeholder set substituted when every
// acquisition strategy fails: a resolved billing dispute, an open login
// issue recommended for escalation, and an already-escalated data-loss
// case.
func SampleSessions(now time.Time) []models.Session {
	billingStart := now.Add(-2 * time.Hour)
	loginStart := now.Add(-45 * time.Minute)
	dataLossStart := now.Add(-15 * time.Minute)

	return []models.Session{
		{
			SessionID:             "session_001",
			CustomerID:            "customer_john_doe",
			CreatedAt:             billingStart,
			Status:                models.StatusResolved,
			EscalationRecommended: false,
			Tags:                  []string{"billing", "refund"},
			Sentiment:             models.SentimentPositive,
			Turns: []models.Turn{
				{Speaker: models.SpeakerUser, Text: "Hi, I need help with a billing issue on my account.", Timestamp: billingStart},
				{Speaker: models.SpeakerAgent, Text: "I'd be happy to help you with your billing concern. Let me look up your account details.", Timestamp: billingStart.Add(30 * time.Second)},
				{Speaker: models.SpeakerUser, Text: "I was charged twice for my subscription this month.", Timestamp: billingStart.Add(time.Minute)},
				{Speaker: models.SpeakerAgent, Text: "I can see the duplicate charge. I've processed a refund for the extra amount. You should see it in 3-5 business days.", Timestamp: billingStart.Add(90 * time.Second)},
			},
			Tools: []models.ToolCall{
				{Name: "account_lookup", Payload: map[string]any{"customerId": "customer_john_doe"}, Timestamp: billingStart.Add(20 * time.Second), Success: true},
				{Name: "billing_refund", Payload: map[string]any{"amount": 29.99, "reason": "duplicate_charge"}, Timestamp: billingStart.Add(80 * time.Second), Success: true},
			},
		},
		{
			SessionID:             "session_002",
			CustomerID:            "customer_jane_smith",
			CreatedAt:             loginStart,
			Status:                models.StatusOpen,
			EscalationRecommended: true,
			Tags:                  []string{"technical", "login"},
			Sentiment:             models.SentimentFrustrated,
			Turns: []models.Turn{
				{Speaker: models.SpeakerUser, Text: "I can't login to my account. I've tried resetting my password multiple times.", Timestamp: loginStart},
				{Speaker: models.SpeakerAgent, Text: "I apologize for the trouble. Let me check your account status and see what might be causing this issue.", Timestamp: loginStart.Add(30 * time.Second)},
			},
			Tools: []models.ToolCall{
				{Name: "account_lookup", Payload: map[string]any{"customerId": "customer_jane_smith"}, Timestamp: loginStart.Add(20 * time.Second), Success: true},
				{Name: "password_reset", Payload: map[string]any{"attempts": 3}, Timestamp: loginStart.Add(40 * time.Second), Success: false},
			},
		},
		{
			SessionID:             "session_003",
			CustomerID:            "customer_mike_wilson",
			CreatedAt:             dataLossStart,
			Status:                models.StatusEscalated,
			EscalationRecommended: true,
			Tags:                  []string{"technical", "data_loss", "urgent"},
			Sentiment:             models.SentimentFrustrated,
			Turns: []models.Turn{
				{Speaker: models.SpeakerUser, Text: "All my data is missing from my account! This is urgent!", Timestamp: dataLossStart},
				{Speaker: models.SpeakerAgent, Text: "I understand this is very concerning. Let me immediately escalate this to our technical team and check for any recent system issues.", Timestamp: dataLossStart.Add(45 * time.Second)},
			},
			Tools: []models.ToolCall{
				{Name: "account_lookup", Payload: map[string]any{"customerId": "customer_mike_wilson"}, Timestamp: dataLossStart.Add(30 * time.Second), Success: true},
				{Name: "data_recovery_scan", Payload: map[string]any{"scope": "full_account"}, Timestamp: dataLossStart.Add(time.Minute), Success: true},
			},
		},
	}
}
