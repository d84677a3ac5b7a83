package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/oksasatya/user-orders-service/internal/domain/entity"
	repo "github.com/oksasatya/user-orders-service/internal/domain/repository"
	"github.com/oksasatya/user-orders-service/pkg/helpers"
	"github.com/oksasatya/user-orders-service/pkg/mailer"
	"github.com/oksasatya/user-orders-service/pkg/mailer/templates"
)

// UserIndex is the search side of the users collection.
type UserIndex interface {
	Index(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, userID int64) error
	Search(ctx context.Context, q string, size int) ([]map[string]any, error)
}

// JobPublisher enqueues background jobs such as emails.
type JobPublisher interface {
	PublishJSON(ctx context.Context, msgType string, body any) error
}

// Company is rendered into outgoing emails.
type Company struct {
	Name       string
	AppName    string
	SupportURL string
}

type Service struct {
	Gateway    repo.UserGateway
	Logger     *logrus.Logger
	BcryptCost int

	// optional collaborators; nil disables the side effect
	Index   UserIndex
	Jobs    JobPublisher
	Company Company
}

var (
	listProjection   = bson.M{"_id": 0, "username": 1, "fullName": 1, "age": 1, "email": 1, "address": 1}
	detailProjection = bson.M{"password": 0}
	ordersProjection = bson.M{"_id": 0, "orders": 1}
)

func byUserID(userID int64) bson.M {
	return bson.M{"userId": userID}
}

func NewService(gateway repo.UserGateway, logger *logrus.Logger, bcryptCost int) *Service {
	return &Service{
		Gateway:    gateway,
		Logger:     logger,
		BcryptCost: bcryptCost,
	}
}

// IsUserExists reports whether a user with userID is stored.
func (s *Service) IsUserExists(ctx context.Context, userID int64) (bool, error) {
	u, err := s.Gateway.FindOne(ctx, byUserID(userID), bson.M{"_id": 1})
	if err != nil {
		return false, err
	}
	return u != nil, nil
}

// CreateUser hashes the password and stores u. The returned user carries no password.
func (s *Service) CreateUser(ctx context.Context, u *entity.User) (*entity.User, error) {
	exists, err := s.IsUserExists(ctx, u.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user exists: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := helpers.HashPassword(u.Password, s.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	doc := *u
	doc.Password = hash
	if doc.Orders == nil {
		doc.Orders = []entity.Order{}
	}
	if doc.Hobbies == nil {
		doc.Hobbies = []string{}
	}

	if err := s.Gateway.InsertOne(ctx, &doc); err != nil {
		if errors.Is(err, repo.ErrDuplicateKey) {
			if s.Logger != nil {
				s.Logger.WithError(err).WithField("user_id", u.UserID).Warn("insert hit unique index")
			}
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	doc.Password = ""
	s.indexUser(ctx, &doc)
	s.enqueueEmail(ctx, &doc, templates.Welcome)
	return &doc, nil
}

// GetAllUsers returns the list view of every user.
func (s *Service) GetAllUsers(ctx context.Context) ([]entity.User, error) {
	users, err := s.Gateway.Find(ctx, bson.M{}, listProjection)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	if users == nil {
		users = []entity.User{}
	}
	return users, nil
}

// GetUser returns the stored user without its password.
func (s *Service) GetUser(ctx context.Context, userID int64) (*entity.User, error) {
	u, err := s.Gateway.FindOne(ctx, byUserID(userID), detailProjection)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	u.Password = ""
	return u, nil
}

// UpdateUser replaces the provided top-level fields and returns the updated user.
func (s *Service) UpdateUser(ctx context.Context, userID int64, patch entity.UserPatch) (*entity.User, error) {
	if patch.IsEmpty() {
		return s.GetUser(ctx, userID)
	}

	if patch.Password != nil {
		hash, err := helpers.HashPassword(*patch.Password, s.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.Password = &hash
	}

	set, err := toSetDocument(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}

	matched, err := s.Gateway.UpdateOne(ctx, byUserID(userID), bson.M{"$set": set})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateKey) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if matched == 0 {
		return nil, ErrUserNotFound
	}

	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.indexUser(ctx, u)
	return u, nil
}

// DeleteUser removes the user. Deleting an absent user is not an error.
func (s *Service) DeleteUser(ctx context.Context, userID int64) (bool, error) {
	n, err := s.Gateway.DeleteOne(ctx, byUserID(userID))
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	if n > 0 && s.Index != nil {
		if err := s.Index.Remove(ctx, userID); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("search index remove failed")
		}
	}
	return n > 0, nil
}

// AppendOrder pushes order to the end of the user's orders.
func (s *Service) AppendOrder(ctx context.Context, userID int64, order entity.Order) error {
	matched, err := s.Gateway.UpdateOne(ctx, byUserID(userID), bson.M{"$push": bson.M{"orders": order}})
	if err != nil {
		return fmt.Errorf("append order: %w", err)
	}
	if matched == 0 {
		return ErrUserNotFound
	}
	s.enqueueOrderEmail(ctx, userID, order)
	return nil
}

// ListOrders returns the user's orders in insertion order.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]entity.Order, error) {
	u, err := s.Gateway.FindOne(ctx, byUserID(userID), ordersProjection)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.Orders == nil {
		return []entity.Order{}, nil
	}
	return u.Orders, nil
}

// TotalOrderValue sums price*quantity over the user's orders on the store side.
// A user without orders totals 0.
func (s *Service) TotalOrderValue(ctx context.Context, userID int64) (float64, error) {
	pipeline := []bson.D{
		{{Key: "$match", Value: byUserID(userID)}},
		{{Key: "$unwind", Value: "$orders"}},
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"totalPrice": bson.M{"$sum": bson.M{
				"$multiply": bson.A{"$orders.price", "$orders.quantity"},
			}},
		}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "totalPrice": 1}}},
	}

	rows, err := s.Gateway.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregate total: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	total, err := toFloat64(rows[0]["totalPrice"])
	if err != nil {
		return 0, fmt.Errorf("aggregate total: %w", err)
	}
	return total, nil
}

// SearchUsers queries the search index. Without an index the result is empty.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Index == nil {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	return s.Index.Search(ctx, strings.TrimSpace(q), size)
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.UserID).Warn("search index update failed")
	}
}

func (s *Service) enqueueEmail(ctx context.Context, u *entity.User, tmpl string, opts ...templates.Option) {
	if s.Jobs == nil || u.Email == "" {
		return
	}
	opts = append([]templates.Option{templates.WithCompany(s.Company.Name, s.Company.AppName, s.Company.SupportURL)}, opts...)
	name := strings.TrimSpace(u.FullName.FirstName + " " + u.FullName.LastName)
	data := templates.NewEmailData(name, u.Username, u.Email, opts...)

	job := mailer.EmailJob{To: u.Email, Template: tmpl, Data: templates.ToMap(data)}

	c, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.Jobs.PublishJSON(c, "email."+tmpl, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": u.UserID, "template": tmpl}).Warn("enqueue email failed")
	}
}

func (s *Service) enqueueOrderEmail(ctx context.Context, userID int64, order entity.Order) {
	if s.Jobs == nil {
		return
	}
	u, err := s.Gateway.FindOne(ctx, byUserID(userID), bson.M{"username": 1, "email": 1, "fullName": 1, "userId": 1})
	if err != nil || u == nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("load order recipient failed")
		}
		return
	}
	s.enqueueEmail(ctx, u, templates.OrderConfirmation, templates.WithOrder(order.ProductName, order.Price, order.Quantity, order.LineTotal()))
}

func toSetDocument(patch entity.UserPatch) (bson.M, error) {
	raw, err := bson.Marshal(patch)
	if err != nil {
		return nil, err
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	return set, nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case primitive.Decimal128:
		return strconv.ParseFloat(n.String(), 64)
	}
	return 0, fmt.Errorf("unexpected total type %T", v)
}
