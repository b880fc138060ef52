package models

// DefaultBranch is the branch label of the seeded accounts
const DefaultBranch = "DIZ branch"

// SeedUsers returns the accounts a fresh store starts with
func SeedUsers() []User {
	staff := func(id, username, name, email, pic string) User {
		return User{
			ID:           id,
			Username:     username,
			Name:         name,
			Email:        email,
			Role:         RoleStaff,
			Branch:       DefaultBranch,
			SupervisorID: "7",
			Permissions:  append([]string(nil), DefaultPermissions...),
			ProfilePic:   pic,
		}
	}

	return []User{
		staff("1", "meron", "Meron Getahun", "meron.g@dukem.com",
			"https://images.unsplash.com/photo-1573496359142-b8d87734a5a2?q=80&w=200&h=200&auto=format&fit=crop"),
		staff("2", "sanbata", "Sanbata Bekele", "sanbata.b@dukem.com",
			"https://images.unsplash.com/photo-1531123897727-8f129e16fd3c?q=80&w=200&h=200&auto=format&fit=crop"),
		staff("3", "genet", "Genet Dereje", "genet.d@dukem.com",
			"https://images.unsplash.com/photo-1567532939604-b6c5b0ad2e01?q=80&w=200&h=200&auto=format&fit=crop"),
		staff("4", "selima", "Selima Hassen", "selima.h@dukem.com",
			"https://images.unsplash.com/photo-1589156280159-27698a70f29e?q=80&w=200&h=200&auto=format&fit=crop"),
		{
			ID:          "6",
			Username:    "manager",
			Name:        "Wonde",
			Email:       "manager@dukem.com",
			Role:        RoleManager,
			Branch:      DefaultBranch,
			Permissions: []string{PermissionAllAccess},
			ProfilePic:  "https://images.unsplash.com/photo-1560250097-0b93528c311a?q=80&w=200&h=200&auto=format&fit=crop",
		},
		{
			ID:          "7",
			Username:    "dawit",
			Name:        "Dawit Asres",
			Email:       "dawit.a@dukem.com",
			Role:        RoleCSM,
			Branch:      DefaultBranch,
			Permissions: append([]string(nil), DefaultPermissions...),
			ProfilePic:  "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?q=80&w=200&h=200&auto=format&fit=crop",
		},
	}
}
