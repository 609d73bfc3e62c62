package model

import (
	"time"

	"gorm.io/gorm"
)

// Invoice status values
const (
	InvoiceAEmitir    = "a_emitir"
	InvoiceEmitida    = "emitida"
	InvoiceEnviada    = "enviada"
	InvoiceEmCobranca = "em_cobranca"
	InvoiceParcial    = "parcial"
	InvoicePaga       = "paga"
	InvoiceVencida    = "vencida"
	InvoiceCancelada  = "cancelada"
)

// Invoice represents a nota fiscal issued under a contract. TenantID is
// fixed at creation and never changes afterwards.
type Invoice struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	TenantID            uint           `json:"tenant_id" gorm:"index;not null"`
	ContractID          uint           `json:"contract_id" gorm:"index;not null"`
	ClientID            uint           `json:"client_id" gorm:"index;not null"`
	Competencia         string         `json:"competencia" gorm:"type:varchar(7);not null"` // YYYY-MM
	NumeroNF            string         `json:"numero_nf,omitempty" gorm:"type:varchar(50)"`
	ChaveNF             string         `json:"chave_nf,omitempty" gorm:"type:varchar(60)"`
	DataPrevisaoEmissao *time.Time     `json:"data_previsao_emissao,omitempty" gorm:"type:date"`
	DataEmissao         *time.Time     `json:"data_emissao,omitempty" gorm:"type:date"`
	DataVencimento      time.Time      `json:"data_vencimento" gorm:"type:date;not null"`
	ValorBruto          float64        `json:"valor_bruto" gorm:"not null"`
	ValorImpostos       *float64       `json:"valor_impostos,omitempty"`
	ValorLiquido        float64        `json:"valor_liquido" gorm:"not null"`
	Retencoes           *float64       `json:"retencoes,omitempty"`
	Status              string         `json:"status" gorm:"type:varchar(20);not null;default:'a_emitir'"`
	LinkPDF             string         `json:"link_pdf,omitempty" gorm:"type:text"`
	Observacoes         string         `json:"observacoes,omitempty" gorm:"type:text"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`

	Contract Contract `json:"contract,omitempty" gorm:"foreignKey:ContractID"`
	Client   Client   `json:"client,omitempty" gorm:"foreignKey:ClientID"`
}
