package service

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"autorent/internal/db"
	"autorent/internal/entities"
)

// SenderService sends booking emails and SMS. All sends run asynchronously so
// a slow provider never blocks the confirmation response.
type SenderService struct{}

func NewSenderService() *SenderService {
	return &SenderService{}
}

func (s *SenderService) BookingConfirmed(user *db.User, booking *db.Booking, vehicle *db.Vehicle) {
	data := entities.BookingEmailData{
		UserName:           user.FullName,
		BookingCode:        booking.Code,
		VehicleName:        fmt.Sprintf("%s %s (%d)", vehicle.Make, vehicle.Model, vehicle.Year),
		StartDateFormatted: booking.StartDate.Format("02 Jan 2006"),
		EndDateFormatted:   booking.EndDate.Format("02 Jan 2006"),
		TotalFormatted:     formatAmount(booking.AmountMinor, booking.Currency),
		CurrentYear:        time.Now().Year(),
	}

	subject := fmt.Sprintf("Your rental booking is confirmed - Code: %s", data.BookingCode)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour vehicle rental is confirmed.\n\n"+
			"Booking Details:\n"+
			"Booking Code: %s\n"+
			"Vehicle: %s\n"+
			"Pickup: %s\n"+
			"Return: %s\n"+
			"Total: %s\n\n"+
			"Thank you for choosing AutoRent.",
		data.UserName, data.BookingCode, data.VehicleName,
		data.StartDateFormatted, data.EndDateFormatted, data.TotalFormatted,
	)
	sms := fmt.Sprintf("AutoRent: booking %s confirmed! Pickup: %s. Details in your email.",
		data.BookingCode, data.StartDateFormatted)

	go func() {
		if err := sendEmailWithSendGrid(user.Email, user.FullName, subject, body); err != nil {
			log.Printf("Booking %s confirmed, but confirmation email failed: %v", booking.Code, err)
		}
	}()
	go func() {
		if err := sendSMS(user.Phone, sms); err != nil {
			log.Printf("Booking %s confirmed, but confirmation SMS failed: %v", booking.Code, err)
		}
	}()
}

func (s *SenderService) BookingCanceled(user *db.User, booking *db.Booking) {
	subject := fmt.Sprintf("Your rental booking was canceled - Code: %s", booking.Code)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour booking %s has been canceled.\n"+
			"Refunds are processed to the original payment method.\n\n"+
			"Thank you for choosing AutoRent.",
		user.FullName, booking.Code,
	)
	go func() {
		if err := sendEmailWithSendGrid(user.Email, user.FullName, subject, body); err != nil {
			log.Printf("Cancellation email for booking %s failed: %v", booking.Code, err)
		}
	}()
}

func sendEmailWithSendGrid(toEmail, toName, subject, plainTextContent string) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY not set")
	}
	fromEmail := os.Getenv("SENDGRID_FROM_EMAIL")
	if fromEmail == "" {
		return fmt.Errorf("SENDGRID_FROM_EMAIL not set")
	}
	fromName := os.Getenv("SENDGRID_FROM_NAME")
	if fromName == "" {
		fromName = "AutoRent"
	}

	from := mail.NewEmail(fromName, fromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, "")

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

func sendSMS(toNumber, messageBody string) error {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	fromNumber := os.Getenv("TWILIO_FROM_NUMBER")
	if accountSid == "" || authToken == "" || fromNumber == "" {
		return fmt.Errorf("twilio credentials not fully configured")
	}
	if !strings.HasPrefix(toNumber, "+") {
		log.Printf("Destination number %q is not E.164, SMS may fail", toNumber)
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	params := &openapi.CreateMessageParams{}
	params.SetTo(toNumber)
	params.SetFrom(fromNumber)
	params.SetBody(messageBody)

	if _, err := client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", strings.ToUpper(currency), minor/100, minor%100)
}
