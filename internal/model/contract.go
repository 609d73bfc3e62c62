package model

import (
	"time"

	"gorm.io/gorm"
)

// Contract status values
const (
	ContractRascunho  = "rascunho"
	ContractAtivo     = "ativo"
	ContractSuspenso  = "suspenso"
	ContractEncerrado = "encerrado"
	ContractCancelado = "cancelado"
)

// Adjustment index values
const (
	IndiceIPCA  = "IPCA"
	IndiceIGPM  = "IGPM"
	IndiceINPC  = "INPC"
	IndiceOutro = "Outro"
)

// Contract represents a contract held with a client. TenantID is fixed at
// creation and never changes afterwards.
type Contract struct {
	ID                     uint           `json:"id" gorm:"primaryKey"`
	TenantID               uint           `json:"tenant_id" gorm:"index;not null"`
	ClientID               uint           `json:"client_id" gorm:"index;not null"`
	Numero                 string         `json:"numero" gorm:"type:varchar(50);not null"`
	Objeto                 string         `json:"objeto" gorm:"type:text;not null"`
	ValorTotal             float64        `json:"valor_total" gorm:"not null"`
	ValorMensal            *float64       `json:"valor_mensal,omitempty"`
	DataInicio             time.Time      `json:"data_inicio" gorm:"type:date;not null"`
	DataFim                time.Time      `json:"data_fim" gorm:"type:date;not null"`
	Status                 string         `json:"status" gorm:"type:varchar(20);not null;default:'rascunho'"`
	IndiceReajuste         string         `json:"indice_reajuste,omitempty" gorm:"type:varchar(10)"`
	PeriodicidadeReajuste  *int           `json:"periodicidade_reajuste,omitempty"` // meses
	ResponsavelInterno     string         `json:"responsavel_interno,omitempty" gorm:"type:varchar(150)"`
	DadosBancarios         string         `json:"dados_bancarios,omitempty" gorm:"type:text"`
	SLA                    string         `json:"sla,omitempty" gorm:"type:text"`
	Observacoes            string         `json:"observacoes,omitempty" gorm:"type:text"`
	FilePath               string         `json:"file_path,omitempty" gorm:"type:text"`
	FileSize               *int64         `json:"file_size,omitempty"`
	FileMimeType           string         `json:"file_mime_type,omitempty" gorm:"type:varchar(100)"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `json:"-" gorm:"index"`

	Client Client `json:"client,omitempty" gorm:"foreignKey:ClientID"`
}
