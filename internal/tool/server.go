// Package tool exposes the assistant's operations as MCP tools.
package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type executorSvc interface {
	executeCommandSvc
	sendEmailSvc
	fetchEmailsSvc
	resolveRecipientSvc
	contactPhrasesSvc
}

// NewServer creates an MCP server with the assistant tools. defaultUser is
// used when a tool call omits user_id, which is the normal case for a
// locally bound single-user server.
func NewServer(svc executorSvc, defaultUser string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "mail-assistant", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "execute_command",
		Description: "Execute a classified NLU command (intent plus entities) against Gmail",
	}, NewExecuteCommand(svc, defaultUser).ExecuteCommand)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_email",
		Description: "Resolve a recipient reference and send an email through Gmail",
	}, NewSendEmail(svc, defaultUser).SendEmail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_emails",
		Description: "Fetch recent emails, optionally filtered by sender, with a speech-friendly summary",
	}, NewFetchEmails(svc, defaultUser).FetchEmails)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_recipient",
		Description: "Resolve a name, partial name or garbled address to an email address",
	}, NewResolveRecipient(svc, defaultUser).ResolveRecipient)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "contact_phrases",
		Description: "List contact name and address phrases for speech recognition boosting",
	}, NewContactPhrases(svc, defaultUser).ContactPhrases)

	return server
}

func orDefault(userID, defaultUser string) string {
	if userID != "" {
		return userID
	}

	return defaultUser
}
