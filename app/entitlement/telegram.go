package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/vibast-solutions/ms-go-paybot/app/factory"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramGateway manages membership of a private Telegram channel. Grant
// issues a fresh single-use invite link and delivers it to the user in a
// direct message; Revoke kicks the user out (ban followed by unban, so a
// future subscription can re-enter through a new link).
type TelegramGateway struct {
	api       telegramAPI
	channelID int64
	logger    logrus.FieldLogger
}

func NewTelegramGateway(api telegramAPI, channelID int64) *TelegramGateway {
	return &TelegramGateway{
		api:       api,
		channelID: channelID,
		logger:    factory.NewModuleLogger("entitlement-telegram"),
	}
}

func (g *TelegramGateway) Grant(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := parseUserID(userID)
	if err != nil {
		return err
	}

	link, err := g.createInviteLink()
	if err != nil {
		return fmt.Errorf("%w: create invite link: %v", ErrGateway, err)
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Payment received. Your invite link to the channel:\n%s\n\nThe link is single-use.", link,
	))
	if _, err := g.api.Send(msg); err != nil {
		return fmt.Errorf("%w: deliver invite link: %v", ErrGateway, err)
	}

	g.logger.WithField("user_id", userID).Info("Channel access granted")
	return nil
}

func (g *TelegramGateway) Revoke(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	memberID, err := parseUserID(userID)
	if err != nil {
		return err
	}

	member := tgbotapi.ChatMemberConfig{ChatID: g.channelID, UserID: memberID}
	if _, err := g.api.Request(tgbotapi.BanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("%w: remove member: %v", ErrGateway, err)
	}
	// Lift the ban right away; revocation means "out of the channel", not
	// "banned forever".
	if _, err := g.api.Request(tgbotapi.UnbanChatMemberConfig{ChatMemberConfig: member, OnlyIfBanned: true}); err != nil {
		return fmt.Errorf("%w: lift ban: %v", ErrGateway, err)
	}

	g.logger.WithField("user_id", userID).Info("Channel access revoked")
	return nil
}

func (g *TelegramGateway) createInviteLink() (string, error) {
	resp, err := g.api.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: g.channelID},
		MemberLimit: 1,
	})
	if err != nil {
		return "", err
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", err
	}
	if link.InviteLink == "" {
		return "", fmt.Errorf("telegram returned no invite link")
	}
	return link.InviteLink, nil
}

func parseUserID(userID string) (int64, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: user id %q is not a telegram id", ErrGateway, userID)
	}
	return id, nil
}
