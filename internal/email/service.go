package email

import (
	"fmt"
	"net/smtp"
)

// Service sends transactional mail over SMTP.
type Service struct {
	host string
	port string
	from string
}

func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendOrderConfirmation mails the payment confirmation to the customer.
func (s *Service) SendOrderConfirmation(to, orderNo string, total float64, items []OrderItem) error {
	subject := fmt.Sprintf("Order confirmed: %s", orderNo)
	return s.send(to, subject, BuildOrderConfirmationBody(orderNo, total, items))
}

// SendOrderCancelled mails the cancellation notice, with a refund line when
// money is on its way back.
func (s *Service) SendOrderCancelled(to, orderNo string, total float64, refunded bool) error {
	subject := fmt.Sprintf("Order cancelled: %s", orderNo)
	return s.send(to, subject, BuildOrderCancelledBody(orderNo, total, refunded))
}

// SendBidPlaced alerts purchasing staff to a fresh supplier bid.
func (s *Service) SendBidPlaced(to, productName, supplierName string, price float64, quantity int) error {
	subject := fmt.Sprintf("New bid on %s", productName)
	return s.send(to, subject, BuildBidPlacedBody(productName, supplierName, price, quantity))
}

// SendBidAccepted mails the purchase-order confirmation to the winning
// supplier.
func (s *Service) SendBidAccepted(to, orderNo, productName string, price float64, quantity int, total float64) error {
	subject := fmt.Sprintf("Bid accepted, purchase order %s", orderNo)
	return s.send(to, subject, BuildBidAcceptedBody(orderNo, productName, price, quantity, total))
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
