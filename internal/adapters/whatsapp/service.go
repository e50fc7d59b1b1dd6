// Package whatsapp implements the messaging adapter port on a whatsmeow
// client. The session lives in a local SQLite store; first authentication
// goes through the QR-code link flow.
package whatsapp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"

	"github.com/medagenda/syncengine/internal/core/domain"
)

type Service struct {
	client  *whatsmeow.Client
	logger  *slog.Logger
	enabled bool
}

// NewService opens the whatsmeow device store and builds the client. It does
// not connect; call Authenticate for that.
func NewService(ctx context.Context, storePath string, enabled bool, logger *slog.Logger) (*Service, error) {
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", storePath), nil)
	if err != nil {
		return nil, fmt.Errorf("open whatsapp device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get whatsapp device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, nil)
	return &Service{
		client:  client,
		logger:  logger.With("service", "whatsapp_adapter"),
		enabled: enabled,
	}, nil
}

func (s *Service) IsEnabled() bool {
	return s.enabled && s.client != nil
}

func (s *Service) IsAuthenticated() bool {
	return s.client != nil && s.client.Store.ID != nil && s.client.IsConnected() && s.client.IsLoggedIn()
}

// Authenticate connects the client. With no stored device it runs the QR
// link flow, printing the code to the terminal until the phone scans it.
// Callers serialize this against concurrent sends.
func (s *Service) Authenticate(ctx context.Context) error {
	if s.client.Store.ID == nil {
		qrChan, _ := s.client.GetQRChannel(ctx)
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("whatsapp connect: %w", err)
		}
		for evt := range qrChan {
			switch evt.Event {
			case "code":
				q, err := qrcode.New(evt.Code, qrcode.Medium)
				if err != nil {
					fmt.Printf("QR code: %s\n", evt.Code)
				} else {
					fmt.Println(q.ToSmallString(false))
				}
				fmt.Println("Scan the QR code with WhatsApp (Settings > Linked Devices > Link a Device)")
			case "success":
				s.logger.InfoContext(ctx, "WhatsApp login succeeded")
			default:
				s.logger.InfoContext(ctx, "WhatsApp login event", "event", evt.Event)
			}
		}
		return nil
	}

	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("whatsapp connect: %w", err)
	}
	return nil
}

// Send delivers message to phone as a plain conversation message.
func (s *Service) Send(ctx context.Context, phone, message string, msgType domain.NotificationType) error {
	number := normalizePhone(phone)

	jid := types.NewJID(number, types.DefaultUserServer)
	if parsed, err := types.ParseJID(number + "@" + types.DefaultUserServer); err == nil {
		jid = parsed
	}

	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + number})
	if err != nil {
		return fmt.Errorf("verify number on whatsapp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("number %s is not registered on whatsapp", phone)
	}
	jid = resp[0].JID

	s.logger.DebugContext(ctx, "Sending WhatsApp message", "jid", jid.String(), "type", msgType)
	_, err = s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		return fmt.Errorf("send whatsapp message to %s: %w", jid.String(), err)
	}
	return nil
}

func (s *Service) Disconnect() {
	if s.client != nil {
		s.client.Disconnect()
	}
}

// normalizePhone strips formatting and prefixes the Italian country code for
// bare national mobile numbers.
func normalizePhone(phone string) string {
	replacer := strings.NewReplacer("+", "", " ", "", "-", "", "(", "", ")", "", ".", "")
	phone = replacer.Replace(phone)

	if strings.HasPrefix(phone, "00") {
		phone = phone[2:]
	}
	// National mobile numbers start with 3 and have 9-10 digits.
	if strings.HasPrefix(phone, "3") && (len(phone) == 9 || len(phone) == 10) {
		phone = "39" + phone
	}
	return phone
}
