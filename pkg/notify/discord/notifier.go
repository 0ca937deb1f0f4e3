package discord

import (
	"context"

	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/internal/types"
	"github.com/fadedpez/pokerscribe/pkg/entities"
)

// Notifier posts finalized hands to a Discord channel
type Notifier struct {
	session   SessionHandler
	channelID string
	logger    *logging.Logger
}

// NewNotifier creates a notifier posting to channelID
func NewNotifier(session SessionHandler, channelID string, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default
	}
	return &Notifier{
		session:   session,
		channelID: channelID,
		logger:    logger,
	}
}

// Open connects the underlying session
func (n *Notifier) Open() error {
	if err := n.session.Open(); err != nil {
		return types.WrapError(types.ErrNotifyError, "error opening Discord session", err)
	}
	return nil
}

// Close disconnects the underlying session
func (n *Notifier) Close() error {
	return n.session.Close()
}

// OnHand posts the hand. Failures are logged and never block recording.
func (n *Notifier) OnHand(ctx context.Context, record *entities.HandRecord) {
	if ctx.Err() != nil {
		return
	}
	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, HandEmbed(record)); err != nil {
		n.logger.LogError(types.WrapError(types.ErrNotifyError, "error posting hand to Discord", err))
	}
}

// Alert posts an error message to the channel
func (n *Notifier) Alert(err error) {
	if _, sendErr := n.session.ChannelMessageSend(n.channelID, ErrorMessage(err)); sendErr != nil {
		n.logger.LogError(types.WrapError(types.ErrNotifyError, "error posting alert to Discord", sendErr))
	}
}
