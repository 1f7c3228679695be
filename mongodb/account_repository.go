package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.pilab.hu/shadow-auth/domain"
)

// accountDocument embeds the identity links so an account and its first link are
// written by a single insert.
type accountDocument struct {
	ID          string         `bson:"_id"`
	Email       string         `bson:"email"`
	DisplayName string         `bson:"display_name"`
	Role        string         `bson:"role"`
	CreatedAt   time.Time      `bson:"created_at"`
	Links       []linkDocument `bson:"links"`
}

type linkDocument struct {
	// Key is "<provider>:<external id>", the field the unique index covers.
	Key        string    `bson:"key"`
	Provider   string    `bson:"provider"`
	ExternalID string    `bson:"external_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (d *accountDocument) toDomain() *domain.Account {
	return &domain.Account{
		ID:          d.ID,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		Role:        domain.Role(d.Role),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

func (l linkDocument) toDomain(accountID string) domain.IdentityLink {
	return domain.IdentityLink{
		AccountID:  accountID,
		Provider:   domain.Provider(l.Provider),
		ExternalID: l.ExternalID,
		CreatedAt:  l.CreatedAt.UTC(),
	}
}

func newLinkDocument(link domain.IdentityLink) linkDocument {
	return linkDocument{
		Key:        linkKey(link.Provider, link.ExternalID),
		Provider:   link.Provider.String(),
		ExternalID: link.ExternalID,
		CreatedAt:  link.CreatedAt,
	}
}

// AccountRepository implements domain.AccountRepository on a single collection.
type AccountRepository struct {
	accounts *mongo.Collection
}

var _ domain.AccountRepository = (*AccountRepository)(nil)

// NewAccountRepository returns a repository over db and makes sure its unique indexes exist.
func NewAccountRepository(ctx context.Context, db *mongo.Database) (*AccountRepository, error) {
	repo := &AccountRepository{accounts: db.Collection(AccountsCollection)}
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// EnsureIndexes creates the unique email index and the unique multikey index over links.key.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(accountEmailIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "links.key", Value: 1}},
			Options: options.Index().SetName(accountLinksIndex).SetUnique(true),
		},
	}

	if _, err := r.accounts.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("create indexes for %s collection: %w", AccountsCollection, err)
	}
	log.Info().Str("collection", AccountsCollection).Msg("Indexes ensured.")
	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	doc, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) CreateWithLink(ctx context.Context, account *domain.Account, link domain.IdentityLink) error {
	doc := accountDocument{
		ID:          account.ID,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		Role:        account.Role.String(),
		CreatedAt:   account.CreatedAt,
		Links:       []linkDocument{newLinkDocument(link)},
	}

	_, err := r.accounts.InsertOne(ctx, doc)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert account: %w", err)
	}
	if strings.Contains(err.Error(), accountEmailIndex) {
		return domain.ErrDuplicateAccount
	}

	// Only one violated index is reported. When the email was taken as well, a concurrent
	// login of the same person won the race and the caller should retry.
	if _, findErr := r.FindByEmail(ctx, account.Email); findErr == nil {
		return domain.ErrDuplicateAccount
	}
	return domain.ErrLinkTaken
}

func (r *AccountRepository) FindLink(ctx context.Context, accountID string, provider domain.Provider) (*domain.IdentityLink, error) {
	doc, err := r.findOne(ctx, bson.M{"_id": accountID})
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, domain.ErrLinkNotFound
	}
	if err != nil {
		return nil, err
	}

	for _, l := range doc.Links {
		if l.Provider == provider.String() {
			link := l.toDomain(doc.ID)
			return &link, nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (r *AccountRepository) AddLink(ctx context.Context, link domain.IdentityLink) error {
	filter := bson.M{
		"_id":            link.AccountID,
		"links.provider": bson.M{"$ne": link.Provider.String()},
	}
	update := bson.M{"$push": bson.M{"links": newLinkDocument(link)}}

	res, err := r.accounts.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrLinkTaken
		}
		return fmt.Errorf("add identity link: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the account is gone or it already has this provider.
	if _, err := r.findOne(ctx, bson.M{"_id": link.AccountID}); err != nil {
		return err
	}
	return domain.ErrDuplicateLink
}

func (r *AccountRepository) ListLinks(ctx context.Context, accountID string) ([]domain.IdentityLink, error) {
	doc, err := r.findOne(ctx, bson.M{"_id": accountID})
	if errors.Is(err, domain.ErrAccountNotFound) {
		return []domain.IdentityLink{}, nil
	}
	if err != nil {
		return nil, err
	}

	links := make([]domain.IdentityLink, 0, len(doc.Links))
	for _, l := range doc.Links {
		links = append(links, l.toDomain(doc.ID))
	}
	return links, nil
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, accountID string) error {
	res, err := r.accounts.DeleteOne(ctx, bson.M{"_id": accountID})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func linkKey(provider domain.Provider, externalID string) string {
	return provider.String() + ":" + externalID
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*accountDocument, error) {
	var doc accountDocument
	err := r.accounts.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &doc, nil
}
