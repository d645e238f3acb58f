package utils

import (
	"slices"

	"discord-summarizer/models"

	"github.com/bwmarrin/discordgo"
)

// Permission levels used by slash commands.
const (
	LevelDeveloper = "developer"
	LevelAdmin     = "admin"
	LevelGuest     = "guest"
)

// Auth provides methods for authorization checks.
type Auth struct {
	config models.CommandsConfig
}

// NewAuth creates a new Auth instance from the loaded configuration.
func NewAuth(config models.CommandsConfig) *Auth {
	return &Auth{config: config}
}

// IsDeveloper checks if a user is a developer.
func (a *Auth) IsDeveloper(userID string) bool {
	return slices.Contains(a.config.Auth.Developers, userID)
}

// IsAdmin checks if a member holds one of the admin roles.
func (a *Auth) IsAdmin(member *discordgo.Member) bool {
	if member == nil {
		return false
	}
	for _, adminRoleID := range a.config.Auth.AdminsRoles {
		if slices.Contains(member.Roles, adminRoleID) {
			return true
		}
	}
	return false
}

// IsGuest checks if a user is a guest.
// "0" in the guest list opens guest commands to everyone.
func (a *Auth) IsGuest(userID string) bool {
	for _, guestID := range a.config.Auth.Guest {
		if guestID == "0" || userID == guestID {
			return true
		}
	}
	return false
}

// CheckPermission checks if the user behind an interaction has the required
// permission level.
func (a *Auth) CheckPermission(i *discordgo.InteractionCreate, requiredLevel string) bool {
	var (
		userID string
		member = i.Member
	)
	switch {
	case member != nil && member.User != nil:
		userID = member.User.ID
	case i.User != nil:
		userID = i.User.ID
	}

	switch requiredLevel {
	case LevelDeveloper:
		return a.IsDeveloper(userID)
	case LevelAdmin:
		return a.IsDeveloper(userID) || a.IsAdmin(member)
	case LevelGuest:
		return true // Guests are allowed
	default:
		return false
	}
}
