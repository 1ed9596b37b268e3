package notify

import (
	"fmt"
	"strings"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"github.com/talkincode/bakeshop/config"
	"github.com/talkincode/bakeshop/internal/ordering"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Settings is the subset of system settings the mailer reads per send,
// so toggling notify.OrderEmailEnabled takes effect without a restart.
type Settings interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsBoolValue(category, key string) bool
}

// Service sends order receipt emails off the event bus. Failures are
// logged and never surface to the submission path.
type Service struct {
	smtp     config.SmtpConfig
	settings Settings
	pool     *ants.Pool
}

func NewService(smtp config.SmtpConfig, settings Settings) (*Service, error) {
	pool, err := ants.NewPool(4)
	if err != nil {
		return nil, err
	}
	return &Service{smtp: smtp, settings: settings, pool: pool}, nil
}

// Subscribe attaches the mailer to the order-created topic.
func (s *Service) Subscribe(bus EventBus.Bus) error {
	return bus.SubscribeAsync(ordering.TopicOrderCreated, s.onOrderCreated, false)
}

func (s *Service) onOrderCreated(ev ordering.OrderCreatedEvent) {
	if !s.settings.GetSettingsBoolValue("notify", "OrderEmailEnabled") {
		return
	}
	if ev.Order == nil || ev.Order.CustomerEmail == "" {
		return
	}
	err := s.pool.Submit(func() {
		if err := s.sendReceipt(ev); err != nil {
			zap.L().Error("order receipt mail failed",
				zap.String("order_id", ev.Order.ID),
				zap.String("to", ev.Order.CustomerEmail),
				zap.Error(err))
		}
	})
	if err != nil {
		zap.L().Error("mail pool submit failed", zap.Error(err))
	}
}

func (s *Service) sendReceipt(ev ordering.OrderCreatedEvent) error {
	order := ev.Order
	shopName := s.settings.GetSettingsStringValue("shop", "ShopName")
	if shopName == "" {
		shopName = "Bakeshop"
	}
	currency := s.settings.GetSettingsStringValue("shop", "Currency")

	m := gomail.NewMessage()
	m.SetHeader("From", s.smtp.From)
	m.SetHeader("To", order.CustomerEmail)
	m.SetHeader("Subject", fmt.Sprintf("%s order %s received", shopName, order.ID))
	m.SetBody("text/html", renderReceipt(shopName, currency, ev))

	d := gomail.NewDialer(s.smtp.Host, s.smtp.Port, s.smtp.Username, s.smtp.Password)
	return d.DialAndSend(m)
}

func renderReceipt(shopName, currency string, ev ordering.OrderCreatedEvent) string {
	order := ev.Order
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>Thank you for your order, %s!</h2>", order.CustomerName))
	b.WriteString(fmt.Sprintf("<p>Your order <b>%s</b> is pending payment confirmation.</p>", order.ID))
	b.WriteString("<table border='0' cellpadding='4'>")
	for _, item := range ev.Items {
		qty := item.Count()
		if qty <= 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("<tr><td>%s</td><td>x%d</td><td>%s %.2f</td></tr>",
			item.Title, qty, currency, item.Price*float64(qty)))
	}
	b.WriteString("</table>")
	if order.DeliveryFee > 0 {
		b.WriteString(fmt.Sprintf("<p>Delivery fee: %s %.2f</p>", currency, order.DeliveryFee))
	}
	b.WriteString(fmt.Sprintf("<p><b>Total: %s %.2f</b></p>", currency, order.Total))
	if order.DeliveryDate != "" {
		b.WriteString(fmt.Sprintf("<p>%s date: %s</p>",
			strings.Title(order.DeliveryType), order.DeliveryDate))
	}
	b.WriteString(fmt.Sprintf("<p>%s</p>", shopName))
	return b.String()
}

// Release drains the send pool.
func (s *Service) Release() {
	s.pool.Release()
}
