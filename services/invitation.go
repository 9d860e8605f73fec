package services

import (
	"log"

	"fairshare-backend/database"
	"fairshare-backend/models"

	"github.com/google/uuid"
)

// InviteToGroup invites someone to a group by email or phone. A registered
// user is added as a member directly; anyone else gets a pending invitation
// that auto-accepts on registration. Duplicate pending invitations are
// collapsed.
func InviteToGroup(groupID uuid.UUID, invitedBy uuid.UUID, email string, phone string) {
	// Already-registered users skip the invitation flow entirely.
	var user models.User
	if email != "" && database.DB.Where("email = ?", email).First(&user).Error == nil {
		var membership int64
		database.DB.Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, user.ID).
			Count(&membership)
		if membership == 0 {
			database.DB.Create(&models.GroupMember{
				GroupID: groupID,
				UserID:  user.ID,
				Role:    "member",
			})
			log.Printf("✅ Added existing user %s to group %s", email, groupID)
		}
		return
	}

	var pending int64
	database.DB.Model(&models.Invitation{}).
		Where("group_id = ? AND status = ? AND ((email <> '' AND email = ?) OR (phone <> '' AND phone = ?))",
			groupID, "pending", email, phone).
		Count(&pending)
	if pending > 0 {
		log.Printf("⚠️  Invitation already pending for %s/%s in group %s", email, phone, groupID)
		return
	}

	invitation := models.Invitation{
		GroupID:   groupID,
		InvitedBy: invitedBy,
		Email:     email,
		Phone:     phone,
		Status:    "pending",
	}
	if err := database.DB.Create(&invitation).Error; err != nil {
		log.Printf("❌ Failed to create invitation: %v", err)
		return
	}

	if email != "" {
		var inviter models.User
		database.DB.First(&inviter, invitedBy)
		var group models.Group
		database.DB.First(&group, groupID)
		GetNotificationService().NotifyInvitation(email, inviter.Name, group.Name)
	}

	log.Printf("✅ Invitation sent to %s/%s for group %s", email, phone, groupID)
}
