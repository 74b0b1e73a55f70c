package handlers

import (
	"time"

	"clairenest/internal/models"
)

// userView is the JSON shape of the caller's own account
type userView struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	PhotoURL      string `json:"photoUrl,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	Role          string `json:"role"`
}

func toUserView(u *models.User) userView {
	return userView{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		PhotoURL:      u.PhotoURL,
		EmailVerified: u.EmailVerified,
		Role:          string(u.Role),
	}
}

// authView is the response to any operation that issues a token
type authView struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

// requestView is the JSON shape of a help request. Expired is a view
// classification, computed at render time.
type requestView struct {
	ID              string     `json:"id"`
	ParentID        string     `json:"parentId"`
	Title           string     `json:"title"`
	Type            string     `json:"type"`
	Notes           string     `json:"notes,omitempty"`
	Status          string     `json:"status"`
	Urgency         string     `json:"urgency"`
	ClaimedBy       *string    `json:"claimedBy,omitempty"`
	StartAt         time.Time  `json:"startAt"`
	EndAt           *time.Time `json:"endAt,omitempty"`
	Expired         bool       `json:"expired"`
	NotificationIDs []string   `json:"notificationIds,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toRequestView(req *models.HelpRequest, now time.Time) requestView {
	return requestView{
		ID:              req.ID,
		ParentID:        req.ParentID,
		Title:           req.Title,
		Type:            string(req.Type),
		Notes:           req.Notes,
		Status:          string(req.Status),
		Urgency:         string(req.Urgency),
		ClaimedBy:       req.ClaimedBy,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		Expired:         req.IsExpired(now),
		NotificationIDs: req.NotificationIDs,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
}

func toRequestViews(reqs []models.HelpRequest, now time.Time) []requestView {
	views := make([]requestView, 0, len(reqs))
	for i := range reqs {
		views = append(views, toRequestView(&reqs[i], now))
	}
	return views
}

// updateView is one entry of a request's history
type updateView struct {
	Type      string             `json:"type"`
	ActorID   string             `json:"actorId"`
	Diffs     []models.FieldDiff `json:"diffs,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

func toUpdateViews(updates []models.RequestUpdate) []updateView {
	views := make([]updateView, 0, len(updates))
	for _, u := range updates {
		views = append(views, updateView{
			Type:      string(u.Type),
			ActorID:   u.ActorID,
			Diffs:     u.Diffs,
			CreatedAt: u.CreatedAt,
		})
	}
	return views
}

// connectionView is one side of a family connection
type connectionView struct {
	CounterpartID string    `json:"counterpartId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toConnectionViews(conns []models.FamilyConnection) []connectionView {
	views := make([]connectionView, 0, len(conns))
	for _, c := range conns {
		views = append(views, connectionView{
			CounterpartID: c.CounterpartID,
			Status:        string(c.Status),
			CreatedAt:     c.CreatedAt,
		})
	}
	return views
}

// messageView is one thread message
type messageView struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func toMessageViews(msgs []models.Message) []messageView {
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Body:      m.Body,
			Read:      m.Read,
			CreatedAt: m.CreatedAt,
		})
	}
	return views
}

// childView is a child profile as the owning parent sees it
type childView struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Birthdate  time.Time          `json:"birthdate"`
	AgeYears   int                `json:"ageYears"`
	HeightCm   *float64           `json:"heightCm,omitempty"`
	WeightKg   *float64           `json:"weightKg,omitempty"`
	Milestones []models.Milestone `json:"milestones,omitempty"`
}

func toChildView(c *models.ChildProfile, now time.Time) childView {
	return childView{
		ID:         c.ID,
		Name:       c.Name,
		Birthdate:  c.Birthdate,
		AgeYears:   c.Age(now),
		HeightCm:   c.HeightCm,
		WeightKg:   c.WeightKg,
		Milestones: c.Milestones,
	}
}
