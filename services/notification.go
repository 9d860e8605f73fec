package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"fairshare-backend/config"
	"fairshare-backend/database"
	"fairshare-backend/models"
	"fairshare-backend/money"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"google.golang.org/api/option"
)

type NotificationService struct {
	fcm *messaging.Client
}

var (
	notifService *NotificationService
	notifOnce    sync.Once
)

func GetNotificationService() *NotificationService {
	notifOnce.Do(func() {
		notifService = &NotificationService{}

		app, err := firebase.NewApp(context.Background(), nil,
			option.WithCredentialsFile(config.AppConfig.FirebaseCredPath))
		if err != nil {
			log.Println("⚠️  Firebase not configured, push notifications disabled:", err)
			return
		}

		client, err := app.Messaging(context.Background())
		if err != nil {
			log.Println("⚠️  Firebase messaging unavailable:", err)
			return
		}
		notifService.fcm = client
	})
	return notifService
}

// ============================================================
// PUSH NOTIFICATIONS via Firebase Cloud Messaging
// ============================================================

func (ns *NotificationService) sendPush(fcmToken string, title string, body string, data map[string]string) {
	if ns.fcm == nil || fcmToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: fcmToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := ns.fcm.Send(context.Background(), msg); err != nil {
		log.Printf("❌ FCM send error: %v", err)
		return
	}
	log.Printf("✅ Push notification sent: %s", title)
}

// ============================================================
// EMAIL NOTIFICATIONS via SendGrid
// ============================================================

func (ns *NotificationService) sendEmail(toEmail string, toName string, subject string, htmlBody string) {
	if config.AppConfig.SendGridAPIKey == "" {
		log.Printf("⚠️  SendGrid API key not set, skipping email to %s", toEmail)
		return
	}

	from := mail.NewEmail(config.AppConfig.AppName, config.AppConfig.SendGridFrom)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)

	client := sendgrid.NewSendClient(config.AppConfig.SendGridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		log.Printf("❌ Email send error: %v", err)
		return
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		log.Printf("✅ Email sent to %s", toEmail)
	} else {
		log.Printf("⚠️  SendGrid returned status: %d", resp.StatusCode)
	}
}

// ============================================================
// NOTIFICATION EVENTS
// ============================================================

// NotifyExpenseAdded sends push + email to all split participants
func (ns *NotificationService) NotifyExpenseAdded(expense models.Expense, splits []models.ExpenseSplit, payer models.User, group models.Group) {
	for _, split := range splits {
		if split.UserID == payer.ID {
			continue // Don't notify the payer
		}

		var user models.User
		if err := database.DB.First(&user, split.UserID).Error; err != nil {
			continue
		}

		owed := money.MustMinor(split.OwedMinor, money.Code(expense.Currency))
		title := fmt.Sprintf("%s added an expense", payer.Name)
		body := fmt.Sprintf("You owe %s for \"%s\" in %s", owed, expense.Description, group.Name)

		ns.sendPush(user.FCMToken, title, body, map[string]string{
			"type":       "expense_added",
			"expense_id": expense.ID.String(),
			"group_id":   expense.GroupID.String(),
		})

		total := money.MustMinor(expense.AmountMinor, money.Code(expense.Currency))
		htmlBody := buildExpenseEmailHTML(payer.Name, user.Name, expense.Description, total, owed, group.Name)
		ns.sendEmail(user.Email, user.Name, fmt.Sprintf("%s added \"%s\" in %s", payer.Name, expense.Description, group.Name), htmlBody)
	}
}

// NotifySettlement sends push + email to the payee
func (ns *NotificationService) NotifySettlement(settlement models.Settlement, payer models.User, payee models.User, group models.Group) {
	amount := money.MustMinor(settlement.AmountMinor, money.Code(settlement.Currency))
	title := fmt.Sprintf("%s paid you", payer.Name)
	body := fmt.Sprintf("%s paid you %s in %s", payer.Name, amount, group.Name)

	ns.sendPush(payee.FCMToken, title, body, map[string]string{
		"type":     "settlement",
		"group_id": settlement.GroupID.String(),
	})

	htmlBody := buildSettlementEmailHTML(payer.Name, payee.Name, amount, group.Name)
	ns.sendEmail(payee.Email, payee.Name, fmt.Sprintf("%s settled up with you in %s", payer.Name, group.Name), htmlBody)
}

// NotifyMemberAdded sends push + email to the newly added member
func (ns *NotificationService) NotifyMemberAdded(group models.Group, adder models.User, newMember models.User) {
	title := fmt.Sprintf("You were added to \"%s\"", group.Name)
	body := fmt.Sprintf("%s added you to the group \"%s\"", adder.Name, group.Name)

	ns.sendPush(newMember.FCMToken, title, body, map[string]string{
		"type":     "member_added",
		"group_id": group.ID.String(),
	})

	htmlBody := buildMemberAddedEmailHTML(adder.Name, newMember.Name, group.Name)
	ns.sendEmail(newMember.Email, newMember.Name, title, htmlBody)
}

// NotifyInvitation sends email to non-registered users
func (ns *NotificationService) NotifyInvitation(email string, inviterName string, groupName string) {
	subject := fmt.Sprintf("%s invited you to join \"%s\" on %s", inviterName, groupName, config.AppConfig.AppName)
	htmlBody := buildInvitationEmailHTML(inviterName, groupName)
	ns.sendEmail(email, "", subject, htmlBody)
}

// ============================================================
// EMAIL TEMPLATES
// ============================================================

func buildExpenseEmailHTML(payerName, userName, description string, total, owed money.Money, groupName string) string {
	return fmt.Sprintf(`
		<h2>New expense in %s</h2>
		<p>Hi %s,</p>
		<p><strong>%s</strong> added <strong>"%s"</strong> (%s).</p>
		<p>Your share: <strong>%s</strong></p>`,
		groupName, userName, payerName, description, total, owed)
}

func buildSettlementEmailHTML(payerName, payeeName string, amount money.Money, groupName string) string {
	return fmt.Sprintf(`
		<h2>Payment received</h2>
		<p>Hi %s,</p>
		<p><strong>%s</strong> paid you <strong>%s</strong> in %s.</p>`,
		payeeName, payerName, amount, groupName)
}

func buildMemberAddedEmailHTML(adderName, memberName, groupName string) string {
	return fmt.Sprintf(`
		<h2>Welcome to %s</h2>
		<p>Hi %s,</p>
		<p><strong>%s</strong> added you to the group <strong>"%s"</strong>.</p>`,
		groupName, memberName, adderName, groupName)
}

func buildInvitationEmailHTML(inviterName, groupName string) string {
	return fmt.Sprintf(`
		<h2>You're invited!</h2>
		<p><strong>%s</strong> invited you to join <strong>"%s"</strong> on %s.</p>
		<p><a href="%s">Sign up to start splitting expenses.</a></p>`,
		inviterName, groupName, config.AppConfig.AppName, config.AppConfig.AppURL)
}
