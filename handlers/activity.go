package handlers

import (
	"net/http"

	"fairshare-backend/database"
	"fairshare-backend/models"
	"fairshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/activity - global activity feed for current user
func GetActivity(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	var groupIDs []uuid.UUID
	database.DB.Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &groupIDs)

	var activities []models.Activity
	if len(groupIDs) > 0 {
		database.DB.Where("group_id IN ?", groupIDs).
			Preload("User").
			Order("created_at DESC").
			Offset(pagination.Offset()).
			Limit(pagination.Limit).
			Find(&activities)

		attachGroupNames(activities)
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// GET /api/groups/:id/activity - activity feed for a specific group
func GetGroupActivity(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid group ID")
		return
	}

	if !isMember(groupID, userID) {
		utils.Unauthorized(c, "You are not a member of this group")
		return
	}

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	var activities []models.Activity
	database.DB.Where("group_id = ?", groupID).
		Preload("User").
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&activities)

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// attachGroupNames fills the denormalized GroupName field from one lookup
// over the distinct group ids in the feed.
func attachGroupNames(activities []models.Activity) {
	if len(activities) == 0 {
		return
	}

	idSet := make(map[uuid.UUID]bool, len(activities))
	var ids []uuid.UUID
	for _, a := range activities {
		if !idSet[a.GroupID] {
			idSet[a.GroupID] = true
			ids = append(ids, a.GroupID)
		}
	}

	var groups []models.Group
	database.DB.Where("id IN ?", ids).Find(&groups)

	names := make(map[uuid.UUID]string, len(groups))
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	for i := range activities {
		activities[i].GroupName = names[activities[i].GroupID]
	}
}
