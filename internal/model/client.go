package model

import (
	"time"

	"gorm.io/gorm"
)

// Client status values
const (
	ClientAtivo   = "ativo"
	ClientInativo = "inativo"
)

// Client represents a contratante: a company the tenant holds contracts with
type Client struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null"`
	RazaoSocial   string         `json:"razao_social" gorm:"type:varchar(200);not null"`
	NomeFantasia  string         `json:"nome_fantasia,omitempty" gorm:"type:varchar(200)"`
	Cnpj          string         `json:"cnpj" gorm:"type:varchar(18)"`
	Email         string         `json:"email,omitempty" gorm:"type:varchar(150)"`
	EmailCobranca string         `json:"email_cobranca,omitempty" gorm:"type:varchar(150)"`
	Telefone      string         `json:"telefone,omitempty" gorm:"type:varchar(30)"`
	Endereco      string         `json:"endereco,omitempty" gorm:"type:text"`
	Cidade        string         `json:"cidade,omitempty" gorm:"type:varchar(100)"`
	UF            string         `json:"uf,omitempty" gorm:"type:varchar(2)"`
	Cep           string         `json:"cep,omitempty" gorm:"type:varchar(10)"`
	Observacoes   string         `json:"observacoes,omitempty" gorm:"type:text"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;default:'ativo'"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}
