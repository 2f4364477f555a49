package service

import (
	"fmt"

	"github.com/spec-kit/support-chat/internal/domain"
)

// Canned replies. Clients and tests match these verbatim.
const (
	IntroResponse = "Hello! I'm Nova, your personal assistant. How can I help you today?"

	RefusalResponse = "Sorry, I only help with Novarsis SEO Tool.\n\nPlease let me know if you have any SEO tool related questions?"

	GladToHelpResponse = "Great! I'm glad I could help. Feel free to ask if you have any more questions about Novarsis! 🚀"

	TicketStatusPrompt = "Please enter your ticket number (e.g., NVS12345):"

	InvalidTicketResponse = "⚠️ Please enter a valid ticket ID (e.g., NVS12345)."

	ExpertNeedsQueryResponse = "I'd be happy to connect you with an expert. Please first send your query so I can create a support ticket for you."

	ApologyResponse = "I encountered an issue processing your request. Please try rephrasing your question or connect with our human support team for assistance."

	unresolvedPrefix = "I understand this didn't fully resolve your issue. "

	skipGreetingMarker = "[USER HAS GREETED WITH PROBLEM - SKIP GREETING AND DIRECTLY ADDRESS THE ISSUE]"

	urgentHint     = "\n[User is urgent - provide immediate, actionable solutions]"
	frustratedHint = "\n[User is frustrated - be extra helpful and empathetic]"
)

func escalationResponse(ticketID, whatsApp string) string {
	return fmt.Sprintf(`I've created a priority support ticket for you:

🎫 Ticket ID: %s
📱 Status: %s
⏱️ Response Time: Within 15 minutes

Our expert team has been notified and will reach out to you shortly via:
• In-app chat
• Email to your registered address
• WhatsApp: %s

You can check your ticket status anytime by typing 'ticket %s'`, ticketID, domain.TicketStatusEscalated, whatsApp, ticketID)
}

func ticketDetailsResponse(t domain.Ticket) string {
	return fmt.Sprintf(`🎫 Ticket Details:

Ticket ID: %s
Status: %s
Priority: %s
Created: %s
Query: %s

Our team is working on your issue. You'll receive a notification when there's an update.`,
		t.ID, t.Status, t.Priority, t.CreatedAt.Format("2006-01-02 15:04"), t.SourceQuery)
}

func ticketNotFoundResponse(id, email string) string {
	return fmt.Sprintf("❌ Ticket ID '%s' not found. Please check the ticket number and try again, or contact support at %s.", id, email)
}
