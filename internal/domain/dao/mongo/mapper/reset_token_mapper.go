package mapper

import (
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao/mongo/document"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

// ResetTokenMapper handles conversion between entity.ResetToken and its document.
type ResetTokenMapper struct{}

// NewResetTokenMapper creates a new ResetTokenMapper instance.
func NewResetTokenMapper() *ResetTokenMapper {
	return &ResetTokenMapper{}
}

// ToDocument converts a reset token to a MongoDB document.
func (m *ResetTokenMapper) ToDocument(token *entity.ResetToken) *document.ResetTokenDocument {
	if token == nil {
		return nil
	}
	return &document.ResetTokenDocument{
		ID:        objectID(token.ID),
		UserID:    objectID(token.UserID),
		Email:     token.Email,
		RequestID: token.RequestID,
		Token:     token.TokenHash,
		OTP:       token.OTPHash,
		Client: document.ClientDocument{
			IP:    token.Client.IP,
			Agent: token.Client.Agent,
		},
		CreatedAt: token.CreatedAt,
	}
}

// ToEntity converts a MongoDB document to a reset token.
func (m *ResetTokenMapper) ToEntity(doc *document.ResetTokenDocument) *entity.ResetToken {
	if doc == nil {
		return nil
	}
	return &entity.ResetToken{
		ID:        hexID(doc.ID),
		UserID:    hexID(doc.UserID),
		Email:     doc.Email,
		RequestID: doc.RequestID,
		TokenHash: doc.Token,
		OTPHash:   doc.OTP,
		Client: entity.ClientFingerprint{
			IP:    doc.Client.IP,
			Agent: doc.Client.Agent,
		},
		CreatedAt: doc.CreatedAt,
	}
}
