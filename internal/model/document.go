package model

import (
	"time"

	"gorm.io/gorm"
)

// Document type values
const (
	DocCertidao    = "certidao"
	DocAssinatura  = "assinatura"
	DocAtestado    = "atestado"
	DocProposta    = "proposta"
	DocProcuracao  = "procuracao"
	DocFiscal      = "fiscal"
	DocComprovante = "comprovante"
	DocOutros      = "outros"
)

// Document represents an uploaded file with expiration tracking. FilePath
// is namespaced by tenant id inside the blob store.
type Document struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(200);not null"`
	Type        string         `json:"type" gorm:"type:varchar(30);not null;default:'outros'"`
	FilePath    string         `json:"file_path" gorm:"type:text;not null"`
	FileSize    *int64         `json:"file_size,omitempty"`
	MimeType    string         `json:"mime_type,omitempty" gorm:"type:varchar(100)"`
	Validade    *time.Time     `json:"validade,omitempty" gorm:"type:date;index"`
	ContractID  *uint          `json:"contract_id,omitempty" gorm:"index"`
	ClientID    *uint          `json:"client_id,omitempty" gorm:"index"`
	InvoiceID   *uint          `json:"invoice_id,omitempty" gorm:"index"`
	Version     int            `json:"version" gorm:"not null;default:1"`
	Observacoes string         `json:"observacoes,omitempty" gorm:"type:text"`
	CreatedBy   uint           `json:"created_by" gorm:"index;not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
