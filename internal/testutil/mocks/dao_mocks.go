package mocks

import (
	"context"
	"reflect"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

// MockDocumentDAO is an in-memory dao.DocumentDAO. Filters match on top-level
// equality; operator keys ($or, $regex) are ignored except $lt on times.
type MockDocumentDAO struct {
	mu   sync.RWMutex
	name string
	docs []bson.M

	// Recorded arguments
	LastFilter  bson.M
	LastOptions dao.FindOptions
	LastUpdate  bson.M

	// Error injection
	CountErr  error
	FindErr   error
	InsertErr error
	UpdateErr error
	DeleteErr error
}

var _ dao.DocumentDAO = (*MockDocumentDAO)(nil)

func NewMockDocumentDAO(collection string, docs ...bson.M) *MockDocumentDAO {
	return &MockDocumentDAO{name: collection, docs: docs}
}

func (m *MockDocumentDAO) Collection() string {
	return m.name
}

// Docs returns a snapshot of the stored documents.
func (m *MockDocumentDAO) Docs() []bson.M {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]bson.M, len(m.docs))
	copy(out, m.docs)
	return out
}

func (m *MockDocumentDAO) Count(ctx context.Context, filter bson.M) (int64, error) {
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, d := range m.docs {
		if Matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (m *MockDocumentDAO) Find(ctx context.Context, filter bson.M, opts dao.FindOptions) ([]bson.M, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFilter = filter
	m.LastOptions = opts

	out := make([]bson.M, 0)
	var skipped int64
	for _, d := range m.docs {
		if !Matches(d, filter) {
			continue
		}
		if skipped < opts.Skip {
			skipped++
			continue
		}
		out = append(out, copyDoc(d))
		if opts.Limit > 0 && int64(len(out)) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockDocumentDAO) FindOne(ctx context.Context, filter bson.M, opts dao.FindOptions) (bson.M, error) {
	opts.Skip = 0
	opts.Limit = 1
	docs, err := m.Find(ctx, filter, opts)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (m *MockDocumentDAO) Insert(ctx context.Context, doc any) (bson.M, error) {
	if m.InsertErr != nil {
		return nil, m.InsertErr
	}
	d, err := toDoc(doc)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if _, ok := d["_id"]; !ok {
		d["_id"] = primitive.NewObjectID()
	}
	d["createdAt"] = now
	d["updatedAt"] = now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, d)
	return copyDoc(d), nil
}

func (m *MockDocumentDAO) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M) (bson.M, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	set, err := toDoc(update["$set"])
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFilter = filter
	m.LastUpdate = set
	for _, d := range m.docs {
		if !Matches(d, filter) {
			continue
		}
		for k, v := range set {
			d[k] = v
		}
		d["updatedAt"] = time.Now().UTC()
		return copyDoc(d), nil
	}
	return nil, nil
}

func (m *MockDocumentDAO) FindOneAndDelete(ctx context.Context, filter bson.M) (bson.M, error) {
	if m.DeleteErr != nil {
		return nil, m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFilter = filter
	for i, d := range m.docs {
		if Matches(d, filter) {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return d, nil
		}
	}
	return nil, nil
}

func (m *MockDocumentDAO) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastFilter = filter
	kept := m.docs[:0]
	var n int64
	for _, d := range m.docs {
		if Matches(d, filter) {
			n++
			continue
		}
		kept = append(kept, d)
	}
	m.docs = kept
	return n, nil
}

// Matches reports whether doc satisfies the equality part of filter.
func Matches(doc, filter bson.M) bool {
	for k, want := range filter {
		if len(k) > 0 && k[0] == '$' {
			continue
		}
		got := doc[k]
		if ops, ok := want.(bson.M); ok {
			if lt, ok := ops["$lt"].(time.Time); ok {
				t, ok := got.(time.Time)
				if !ok || !t.Before(lt) {
					return false
				}
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func toDoc(v any) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	if m, ok := v.(bson.M); ok {
		return copyDoc(m), nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyDoc(d bson.M) bson.M {
	out := make(bson.M, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// MockUserDAO is a mock implementation of dao.UserDAO
type MockUserDAO struct {
	mu    sync.RWMutex
	users map[string]*entity.User

	// Error injection
	CreateErr         error
	FindByIDErr       error
	FindByEmailErr    error
	UpdatePasswordErr error
	UpdateErr         error
}

var _ dao.UserDAO = (*MockUserDAO)(nil)

func NewMockUserDAO() *MockUserDAO {
	return &MockUserDAO{users: make(map[string]*entity.User)}
}

// AddUser stores u as is, assigning an id when it has none.
func (m *MockUserDAO) AddUser(u *entity.User) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	m.users[u.ID] = u
	return u
}

func (m *MockUserDAO) Create(ctx context.Context, user *entity.User) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return dao.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID().Hex()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Wishlist == nil {
		user.Wishlist = []string{}
	}
	if user.Addresses == nil {
		user.Addresses = []entity.Address{}
	}
	m.users[user.ID] = user
	return nil
}

func (m *MockUserDAO) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if m.FindByIDErr != nil {
		return nil, m.FindByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *MockUserDAO) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.FindByEmailErr != nil {
		return nil, m.FindByEmailErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockUserDAO) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := m.FindByEmail(ctx, email)
	return u != nil, err
}

func (m *MockUserDAO) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) (*entity.User, error) {
	if m.UpdatePasswordErr != nil {
		return nil, m.UpdatePasswordErr
	}
	return m.mutate(id, func(u *entity.User) {
		u.Password = hash
		u.PasswordChangedAt = &changedAt
	})
}

func (m *MockUserDAO) AddToWishlist(ctx context.Context, id, productID string) (*entity.User, error) {
	return m.mutate(id, func(u *entity.User) {
		for _, p := range u.Wishlist {
			if p == productID {
				return
			}
		}
		u.Wishlist = append(u.Wishlist, productID)
	})
}

func (m *MockUserDAO) RemoveFromWishlist(ctx context.Context, id, productID string) (*entity.User, error) {
	return m.mutate(id, func(u *entity.User) {
		kept := []string{}
		for _, p := range u.Wishlist {
			if p != productID {
				kept = append(kept, p)
			}
		}
		u.Wishlist = kept
	})
}

func (m *MockUserDAO) AddAddress(ctx context.Context, id string, address entity.Address) (*entity.User, error) {
	return m.mutate(id, func(u *entity.User) {
		if address.ID == "" {
			address.ID = primitive.NewObjectID().Hex()
		}
		u.Addresses = append(u.Addresses, address)
	})
}

func (m *MockUserDAO) RemoveAddress(ctx context.Context, id, addressID string) (*entity.User, error) {
	return m.mutate(id, func(u *entity.User) {
		kept := []entity.Address{}
		for _, a := range u.Addresses {
			if a.ID != addressID {
				kept = append(kept, a)
			}
		}
		u.Addresses = kept
	})
}

func (m *MockUserDAO) mutate(id string, fn func(u *entity.User)) (*entity.User, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	fn(u)
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

// MockResetTokenDAO is a mock implementation of dao.ResetTokenDAO
type MockResetTokenDAO struct {
	mu     sync.RWMutex
	tokens map[string]*entity.ResetToken // keyed by user id

	// Error injection
	UpsertErr error
	FindErr   error
	DeleteErr error
}

var _ dao.ResetTokenDAO = (*MockResetTokenDAO)(nil)

func NewMockResetTokenDAO() *MockResetTokenDAO {
	return &MockResetTokenDAO{tokens: make(map[string]*entity.ResetToken)}
}

// Tokens returns a snapshot of the stored tokens.
func (m *MockResetTokenDAO) Tokens() []entity.ResetToken {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entity.ResetToken, 0, len(m.tokens))
	for _, t := range m.tokens {
		out = append(out, *t)
	}
	return out
}

func (m *MockResetTokenDAO) Upsert(ctx context.Context, token *entity.ResetToken) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.tokens[token.UserID]; ok {
		token.ID = prev.ID
	} else {
		token.ID = primitive.NewObjectID().Hex()
	}
	cp := *token
	m.tokens[token.UserID] = &cp
	return nil
}

func (m *MockResetTokenDAO) FindByRequest(ctx context.Context, requestID string, client entity.ClientFingerprint) (*entity.ResetToken, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if t.RequestID == requestID && t.Client == client {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockResetTokenDAO) Delete(ctx context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for uid, t := range m.tokens {
		if t.ID == id {
			delete(m.tokens, uid)
		}
	}
	return nil
}

func (m *MockResetTokenDAO) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteErr != nil {
		return 0, m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for uid, t := range m.tokens {
		if t.CreatedAt.Before(cutoff) {
			delete(m.tokens, uid)
			n++
		}
	}
	return n, nil
}

// MockReviewDAO is a mock implementation of dao.ReviewDAO
type MockReviewDAO struct {
	Stats map[string]dao.RatingStats
	Err   error
}

var _ dao.ReviewDAO = (*MockReviewDAO)(nil)

func NewMockReviewDAO() *MockReviewDAO {
	return &MockReviewDAO{Stats: make(map[string]dao.RatingStats)}
}

func (m *MockReviewDAO) RatingStats(ctx context.Context, productID string) (dao.RatingStats, bool, error) {
	if m.Err != nil {
		return dao.RatingStats{}, false, m.Err
	}
	s, ok := m.Stats[productID]
	return s, ok, nil
}
