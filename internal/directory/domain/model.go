package domain

import (
	"strconv"
	"time"
)

type CustomerID int64

func (id CustomerID) String() string { return strconv.FormatInt(int64(id), 10) }

type SupplierID int64

func (id SupplierID) String() string { return strconv.FormatInt(int64(id), 10) }

type Customer struct {
	ID        CustomerID `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string     `gorm:"type:varchar(64);not null" json:"phone"`
	Email     string     `gorm:"type:varchar(255);not null" json:"email"`
	CreatedBy string     `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

type Supplier struct {
	ID        SupplierID `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Company   string     `gorm:"type:varchar(255)" json:"company"`
	Phone     string     `gorm:"type:varchar(64)" json:"phone"`
	Email     string     `gorm:"type:varchar(255)" json:"email"`
	Active    bool       `gorm:"not null" json:"active"`
	CreatedBy string     `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (Supplier) TableName() string { return "suppliers" }

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	User  string `json:"-"`
}

type CreateSupplierRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	User    string `json:"-"`
}

// UpdateCustomerRequest changes only the fields that are set.
type UpdateCustomerRequest struct {
	ID    CustomerID `json:"-"`
	Name  *string    `json:"name"`
	Phone *string    `json:"phone"`
	Email *string    `json:"email"`
	User  string     `json:"-"`
}

type UpdateSupplierRequest struct {
	ID      SupplierID `json:"-"`
	Name    *string    `json:"name"`
	Company *string    `json:"company"`
	Phone   *string    `json:"phone"`
	Email   *string    `json:"email"`
	Active  *bool      `json:"active"`
	User    string     `json:"-"`
}

// SearchFilter matches a case-insensitive substring against names and
// contact fields. An empty query matches everything.
type SearchFilter struct {
	Query    string
	BeforeID int64
	Limit    int
}
