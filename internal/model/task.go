package model

import (
	"time"

	"gorm.io/gorm"
)

// Task status values
const (
	TaskPendente    = "pendente"
	TaskEmAndamento = "em_andamento"
	TaskConcluida   = "concluida"
	TaskCancelada   = "cancelada"
)

// Task type values
const (
	TaskEmissaoNF         = "emissao_nf"
	TaskEnvioNF           = "envio_nf"
	TaskCobranca          = "cobranca"
	TaskRenovacaoContrato = "renovacao_contrato"
	TaskRenovacaoCertidao = "renovacao_certidao"
	TaskOutros            = "outros"
)

// Task represents an agenda item, optionally linked to a contract, client
// or invoice of the same tenant.
type Task struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	Title       string         `json:"title" gorm:"type:varchar(200);not null"`
	Description string         `json:"description,omitempty" gorm:"type:text"`
	Type        string         `json:"type" gorm:"type:varchar(30);not null;default:'outros'"`
	Status      string         `json:"status" gorm:"type:varchar(20);not null;default:'pendente'"`
	DueDate     *time.Time     `json:"due_date,omitempty" gorm:"type:date;index"`
	ContractID  *uint          `json:"contract_id,omitempty" gorm:"index"`
	ClientID    *uint          `json:"client_id,omitempty" gorm:"index"`
	InvoiceID   *uint          `json:"invoice_id,omitempty" gorm:"index"`
	AssignedTo  *uint          `json:"assigned_to,omitempty" gorm:"index"`
	CreatedBy   uint           `json:"created_by" gorm:"index;not null"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
