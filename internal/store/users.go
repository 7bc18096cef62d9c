package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vesaa/votedesk/internal/models"
)

// NewUser describes an account to create.
type NewUser struct {
	Username  string `json:"username" form:"username" binding:"required,max=100"`
	Email     string `json:"email" form:"email" binding:"required,email,max=100"`
	Password  string `json:"password" form:"password" binding:"required,min=6,max=72"`
	FullName  string `json:"full_name" form:"full_name" binding:"max=100"`
	Role      string `json:"-"`
	Superuser bool   `json:"-"`
}

// CreateUser inserts a user with a hashed password. Role defaults to
// participant.
func (s *Store) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = createUser(tx, in, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// createUser must run inside a transaction; link sets the profile foreign key.
func createUser(tx *gorm.DB, in NewUser, link func(*models.User)) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Username == "" {
		return nil, invalid("username is required")
	}
	if in.Email == "" {
		return nil, invalid("email is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleParticipant
	}

	if taken, err := exists(tx, &models.User{}, "username = ?", in.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, conflict("Username already registered")
	}
	if taken, err := exists(tx, &models.User{}, "email = ?", in.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, conflict("Email already registered")
	}

	role, err := roleByName(tx, in.Role)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:       in.Username,
		Email:          in.Email,
		HashedPassword: hash,
		FullName:       strings.TrimSpace(in.FullName),
		IsActive:       true,
		IsSuperuser:    in.Superuser,
		RoleID:         role.ID,
	}
	if link != nil {
		link(user)
	}
	if err := tx.Create(user).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("Username already registered")
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	user.Role = role
	return user, nil
}

func roleByName(tx *gorm.DB, name string) (*models.Role, error) {
	var role models.Role
	err := tx.Where("name = ?", name).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if oneOf(name, roleNames()) {
			return nil, fmt.Errorf("%s: %w", name, errNoRole)
		}
		return nil, invalid("unknown role %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading role: %w", err)
	}
	return &role, nil
}

func roleNames() []string {
	names := make([]string, len(models.DefaultRoles))
	for i, r := range models.DefaultRoles {
		names[i] = r.Name
	}
	return names
}

// Authenticate checks a login (username or email) and password. Unknown
// logins and wrong passwords are indistinguishable to the caller.
func (s *Store) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &Problem{Kind: ErrInvalidCredentials, Detail: "Incorrect username or password"}
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if !CheckPasswordHash(password, user.HashedPassword) {
		s.log.Info("login rejected", zap.String("login", login))
		return nil, &Problem{Kind: ErrInvalidCredentials, Detail: "Incorrect username or password"}
	}
	if !user.IsActive {
		return nil, &Problem{Kind: ErrInactive, Detail: "Inactive user"}
	}
	return &user, nil
}

// UserByID loads a user with its role.
func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return first[models.User](s.db.WithContext(ctx).Preload("Role"), "User", id)
}

// ── Election-side registration ───────────────────────────────────────────────

type VoterRegistration struct {
	FullName    string      `json:"full_name" binding:"required"`
	DateOfBirth models.Date `json:"date_of_birth"`
	Address     string      `json:"address" binding:"required"`
	Email       string      `json:"email" binding:"required,email"`
	Phone       string      `json:"phone"`
	Password    string      `json:"password" binding:"required,min=6,max=72"`
}

type PartyRegistration struct {
	Name             string      `json:"name" binding:"required"`
	RegistrationDate models.Date `json:"registration_date"`
	Status           string      `json:"status"`
	Password         string      `json:"password" binding:"required,min=6,max=72"`
}

type StaffRegistration struct {
	FullName    string      `json:"full_name" binding:"required"`
	DateOfBirth models.Date `json:"date_of_birth"`
	Address     string      `json:"address" binding:"required"`
	Email       string      `json:"email" binding:"required,email"`
	Phone       string      `json:"phone"`
	Department  string      `json:"department"`
	Position    string      `json:"position"`
	Password    string      `json:"password" binding:"required,min=6,max=72"`
}

// RegisterVoter creates a voter profile and its login in one transaction.
// The login name is the email address.
func (s *Store) RegisterVoter(ctx context.Context, in VoterRegistration) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.DateOfBirth.IsZero() {
		return nil, invalid("date_of_birth is required")
	}
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx, &models.User{}, "email = ?", email); err != nil {
			return err
		} else if taken {
			return conflict("Email already registered")
		}
		if taken, err := exists(tx, &models.Voter{}, "email = ?", email); err != nil {
			return err
		} else if taken {
			return conflict("Voter already registered")
		}

		voter := &models.Voter{
			FullName:         strings.TrimSpace(in.FullName),
			DateOfBirth:      in.DateOfBirth,
			Address:          strings.TrimSpace(in.Address),
			Email:            email,
			Phone:            in.Phone,
			RegistrationDate: s.now(),
		}
		if err := tx.Create(voter).Error; err != nil {
			return fmt.Errorf("creating voter: %w", err)
		}

		var err error
		user, err = createUser(tx, NewUser{
			Username: email,
			Email:    email,
			Password: in.Password,
			FullName: voter.FullName,
			Role:     models.RoleVoter,
		}, func(u *models.User) { u.VoterID = &voter.ID })
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("voter registered", zap.Uint("user_id", user.ID), zap.Uintp("voter_id", user.VoterID))
	return user, nil
}

// PartyLogin derives a party's login name from its display name.
func PartyLogin(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// RegisterParty creates a party and its login. The login is the lower-cased
// name with spaces replaced by underscores.
func (s *Store) RegisterParty(ctx context.Context, in PartyRegistration) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if in.RegistrationDate.IsZero() {
		return nil, invalid("registration_date is required")
	}
	status := in.Status
	if status == "" {
		status = models.PartyStatuses[0]
	}
	if err := checkStatus("status", status, models.PartyStatuses); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx, &models.Party{}, "name = ?", name); err != nil {
			return err
		} else if taken {
			return conflict("Party already registered")
		}
		party := &models.Party{Name: name, RegistrationDate: in.RegistrationDate, Status: status}
		if err := tx.Create(party).Error; err != nil {
			return fmt.Errorf("creating party: %w", err)
		}

		login := PartyLogin(name)
		var err error
		user, err = createUser(tx, NewUser{
			Username: login,
			Email:    login + "@party.local",
			Password: in.Password,
			FullName: name,
			Role:     models.RoleParty,
		}, func(u *models.User) { u.PartyID = &party.ID })
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("party registered", zap.Uint("user_id", user.ID), zap.Uintp("party_id", user.PartyID))
	return user, nil
}

// RegisterStaff creates a staff profile and its login (the email address).
func (s *Store) RegisterStaff(ctx context.Context, in StaffRegistration) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.DateOfBirth.IsZero() {
		return nil, invalid("date_of_birth is required")
	}
	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if taken, err := exists(tx, &models.User{}, "email = ?", email); err != nil {
			return err
		} else if taken {
			return conflict("Email already registered")
		}
		if taken, err := exists(tx, &models.Staff{}, "email = ?", email); err != nil {
			return err
		} else if taken {
			return conflict("Staff member already registered")
		}

		staff := &models.Staff{
			FullName:         strings.TrimSpace(in.FullName),
			Email:            &email,
			Phone:            in.Phone,
			DateOfBirth:      in.DateOfBirth,
			Address:          strings.TrimSpace(in.Address),
			Department:       in.Department,
			Position:         in.Position,
			Status:           models.StaffStatuses[0],
			RegistrationDate: s.now(),
		}
		if err := tx.Create(staff).Error; err != nil {
			return fmt.Errorf("creating staff: %w", err)
		}

		var err error
		user, err = createUser(tx, NewUser{
			Username: email,
			Email:    email,
			Password: in.Password,
			FullName: staff.FullName,
			Role:     models.RoleStaff,
		}, func(u *models.User) { u.StaffID = &staff.ID })
		if err != nil {
			return err
		}
		return tx.Model(staff).Update("user_id", user.ID).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("staff registered", zap.Uint("user_id", user.ID), zap.Uintp("staff_id", user.StaffID))
	return user, nil
}
