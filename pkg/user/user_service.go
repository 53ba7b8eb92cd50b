package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/kdatlt/foodgram/domain"
	"github.com/kdatlt/foodgram/entities"
	"github.com/kdatlt/foodgram/internal/utils"
	"github.com/kdatlt/foodgram/internal/utils/mailing"
	"github.com/kdatlt/foodgram/internal/utils/storage"
	"github.com/kdatlt/foodgram/pkg/jwt"
)

const resetTokenTTL = 30 * time.Minute

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID uint) (domain.UserResponse, error)
		GetUser(ctx context.Context, viewerID *uint, id uint) (domain.UserResponse, error)
		ListUsers(ctx context.Context, viewerID *uint, page, limit int) ([]domain.UserResponse, int64, error)
		SetPassword(ctx context.Context, userID uint, req domain.SetPasswordRequest) error
		RequestPasswordReset(ctx context.Context, req domain.ResetPasswordRequest) error
		ConfirmPasswordReset(ctx context.Context, req domain.ResetPasswordConfirmRequest) error
		SetAvatar(ctx context.Context, userID uint, req domain.AvatarRequest) (domain.AvatarResponse, error)
		DeleteAvatar(ctx context.Context, userID uint) error

		Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, userID, authorID uint) error
		ListSubscriptions(ctx context.Context, userID uint, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		s3             storage.AwsS3
		mailer         mailing.Mailer
		appURL         string
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, s3 storage.AwsS3, mailer mailing.Mailer, appURL string) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		s3:             s3,
		mailer:         mailer,
		appURL:         strings.TrimRight(appURL, "/"),
	}
}

func ToUserResponse(u *entities.User, isSubscribed bool) domain.UserResponse {
	return domain.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       u.AvatarURL,
	}
}

func ToRecipeShort(r *entities.Recipe) domain.RecipeShort {
	return domain.RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.ImageURL,
		CookingTime: r.CookingTime,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)

	if username == domain.ReservedUsername {
		return domain.RegisterResponse{}, domain.ErrReservedUsername
	}
	if !utils.IsValidUsername(username) {
		return domain.RegisterResponse{}, domain.ErrInvalidUsername
	}
	if strings.EqualFold(email, username) {
		return domain.RegisterResponse{}, domain.ErrEmailEqualsUsername
	}

	exists, err := s.userRepository.CheckUserByEmail(ctx, email)
	if err != nil {
		return domain.RegisterResponse{}, err
	}
	if exists {
		return domain.RegisterResponse{}, domain.ErrEmailAlreadyExists
	}
	exists, err = s.userRepository.CheckUserByUsername(ctx, username)
	if err != nil {
		return domain.RegisterResponse{}, err
	}
	if exists {
		return domain.RegisterResponse{}, domain.ErrUsernameAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterResponse{}, err
	}

	user := entities.User{
		Email:        email,
		Username:     username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	}
	if err := s.userRepository.CreateUser(ctx, &user); err != nil {
		return domain.RegisterResponse{}, err
	}

	return domain.RegisterResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.LoginResponse{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateTokenUser(user.ID)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{AuthToken: token}, nil
}

func (s *userService) Me(ctx context.Context, userID uint) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return ToUserResponse(user, false), nil
}

func (s *userService) isSubscribed(ctx context.Context, viewerID *uint, authorID uint) (bool, error) {
	if viewerID == nil || *viewerID == authorID {
		return false, nil
	}
	return s.userRepository.IsSubscribed(ctx, *viewerID, authorID)
}

func (s *userService) GetUser(ctx context.Context, viewerID *uint, id uint) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		return domain.UserResponse{}, err
	}
	subscribed, err := s.isSubscribed(ctx, viewerID, user.ID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return ToUserResponse(user, subscribed), nil
}

func (s *userService) ListUsers(ctx context.Context, viewerID *uint, page, limit int) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		subscribed, err := s.isSubscribed(ctx, viewerID, u.ID)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, ToUserResponse(u, subscribed))
	}
	return res, count, nil
}

func (s *userService) SetPassword(ctx context.Context, userID uint, req domain.SetPasswordRequest) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return domain.ErrWrongCurrentPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepository.UpdatePassword(ctx, user.ID, string(hash))
}

// passwordFingerprint ties a reset token to the password it was issued for,
// so a token stops working once the password changes.
func passwordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func (s *userService) RequestPasswordReset(ctx context.Context, req domain.ResetPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	token, err := s.jwtService.GenerateTokenForgetPassword(map[string]any{
		"user_id": user.ID,
		"fp":      passwordFingerprint(user.PasswordHash),
	}, resetTokenTTL)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Follow <a href=\"%s\">this link</a> to choose a new password. It expires in %d minutes.</p>",
		user.Username, link, int(resetTokenTTL.Minutes()),
	)
	if err := s.mailer.SendMail(user.Email, "Foodgram password reset", body); err != nil {
		log.Errorf("sending password reset mail to user %d: %v", user.ID, err)
		return err
	}
	return nil
}

func (s *userService) ConfirmPasswordReset(ctx context.Context, req domain.ResetPasswordConfirmRequest) error {
	claims, err := s.jwtService.ValidateTokenForgetPassword(req.Token)
	if err != nil {
		return domain.ErrInvalidResetToken
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID <= 0 {
		return domain.ErrInvalidResetToken
	}
	user, err := s.userRepository.GetUserByID(ctx, uint(rawID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}
	if fp, _ := claims["fp"].(string); fp != passwordFingerprint(user.PasswordHash) {
		return domain.ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepository.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *userService) deleteStoredImage(ctx context.Context, link string) {
	key := s.s3.GetObjectKeyFromLink(link)
	if key == "" {
		return
	}
	if err := s.s3.DeleteFile(ctx, key); err != nil {
		log.Warnf("deleting stored image %s: %v", key, err)
	}
}

func (s *userService) SetAvatar(ctx context.Context, userID uint, req domain.AvatarRequest) (domain.AvatarResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.AvatarResponse{}, err
	}

	data, contentType, ext, err := utils.DecodeDataURI(req.Avatar)
	if err != nil {
		return domain.AvatarResponse{}, domain.ErrInvalidImage
	}
	if ext == "" {
		return domain.AvatarResponse{}, domain.ErrUnsupportedImageType
	}

	objectKey, err := s.s3.UploadFile(ctx, "avatar"+ext, data, contentType, "avatars", storage.AllowImage...)
	if err != nil {
		return domain.AvatarResponse{}, err
	}
	link := s.s3.GetPublicLinkKey(objectKey)

	if err := s.userRepository.UpdateAvatar(ctx, user.ID, link); err != nil {
		s.deleteStoredImage(ctx, link)
		return domain.AvatarResponse{}, err
	}
	if user.AvatarURL != "" {
		s.deleteStoredImage(ctx, user.AvatarURL)
	}
	return domain.AvatarResponse{Avatar: link}, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.userRepository.UpdateAvatar(ctx, user.ID, ""); err != nil {
		return err
	}
	if user.AvatarURL != "" {
		s.deleteStoredImage(ctx, user.AvatarURL)
	}
	return nil
}

func (s *userService) subscriptionResponse(ctx context.Context, author *entities.User, recipesLimit int) (domain.SubscriptionResponse, error) {
	recipes, err := s.userRepository.GetRecipesByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	count, err := s.userRepository.CountRecipesByAuthor(ctx, author.ID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	shorts := make([]domain.RecipeShort, 0, len(recipes))
	for _, r := range recipes {
		shorts = append(shorts, ToRecipeShort(r))
	}
	return domain.SubscriptionResponse{
		UserResponse: ToUserResponse(author, true),
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}

func (s *userService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (domain.SubscriptionResponse, error) {
	if userID == authorID {
		return domain.SubscriptionResponse{}, domain.ErrSelfSubscription
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	subscribed, err := s.userRepository.IsSubscribed(ctx, userID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if subscribed {
		return domain.SubscriptionResponse{}, domain.ErrAlreadySubscribed
	}

	if err := s.userRepository.CreateSubscription(ctx, userID, authorID); err != nil {
		return domain.SubscriptionResponse{}, err
	}
	return s.subscriptionResponse(ctx, author, recipesLimit)
}

func (s *userService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if userID == authorID {
		return domain.ErrSelfSubscription
	}
	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		return err
	}
	return s.userRepository.DeleteSubscription(ctx, userID, authorID)
}

func (s *userService) ListSubscriptions(ctx context.Context, userID uint, page, limit, recipesLimit int) ([]domain.SubscriptionResponse, int64, error) {
	authors, count, err := s.userRepository.GetSubscriptions(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, author := range authors {
		item, err := s.subscriptionResponse(ctx, author, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, item)
	}
	return res, count, nil
}
