package relational

import (
	"strconv"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/shopspring/decimal"
)

type userRow struct {
	ID        uint64    `gorm:"primary_key"`
	Username  string    `gorm:"size:100;not null;uniqueIndex"`
	Password  string    `gorm:"size:255;not null"`
	Role      string    `gorm:"size:20;not null;default:admin"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (userRow) TableName() string { return "users" }

type companyRow struct {
	ID            uint64  `gorm:"primary_key"`
	Name          string  `gorm:"size:255;not null"`
	Address       string  `gorm:"type:text;not null"`
	Gst           *string `gorm:"size:50"`
	Phone         *string `gorm:"size:50"`
	Email         *string `gorm:"size:255"`
	Website       *string `gorm:"size:255"`
	BankName      *string `gorm:"size:255"`
	AccountNumber *string `gorm:"size:100"`
	IfscCode      *string `gorm:"size:50"`
	UpiId         *string `gorm:"size:100"`
	LogoUrl       *string `gorm:"type:text"`
	QrCodeUrl     *string `gorm:"type:text"`
	PaymentTerms  *string `gorm:"type:text"`
}

func (companyRow) TableName() string { return "companies" }

type clientRow struct {
	ID          uint64  `gorm:"primary_key"`
	Name        string  `gorm:"size:255;not null"`
	CompanyName *string `gorm:"size:255"`
	ServiceName *string `gorm:"size:255"`
	Address     *string `gorm:"type:text"`
	Phone       *string `gorm:"size:50"`
	Email       *string `gorm:"size:255"`
	Gst         *string `gorm:"size:50"`
	LogoUrl     *string `gorm:"type:text"`
	CustomId    *string `gorm:"size:50;uniqueIndex"`
	// highest invoice sequence handed out for this client
	InvoiceSeq int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

func (clientRow) TableName() string { return "clients" }

type invoiceRow struct {
	ID            uint64               `gorm:"primary_key"`
	InvoiceNumber string               `gorm:"size:100;not null;uniqueIndex"`
	Date          time.Time            `gorm:"not null"`
	DueDate       *time.Time
	ClientID      uint64               `gorm:"not null;index"`
	Client        clientRow            `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Status        string               `gorm:"size:20;not null;default:pending"`
	Items         []models.InvoiceItem `gorm:"serializer:json;type:json;not null"`
	Subtotal      decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	Tax           decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	Discount      decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	Total         decimal.Decimal      `gorm:"type:decimal(20,4);not null;default:0"`
	Description   *string              `gorm:"type:text"`
	Notes         *string              `gorm:"type:text"`
	CreatedAt     time.Time            `gorm:"autoCreateTime;index"`
}

func (invoiceRow) TableName() string { return "invoices" }

// sequenceRow is a named counter, used for client customIds.
type sequenceRow struct {
	Name      string `gorm:"primary_key;size:50"`
	LastValue int    `gorm:"not null;default:0"`
}

func (sequenceRow) TableName() string { return "sequences" }

type sessionRow struct {
	Token     string    `gorm:"primary_key;size:64"`
	UserID    string    `gorm:"size:64;not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (sessionRow) TableName() string { return "sessions" }

const clientSequence = "clients"

func formatID(id uint64) models.ID {
	return models.ID(strconv.FormatUint(id, 10))
}

// parseID reports false for ids that cannot be a primary key; callers treat them as unknown.
func parseID(id models.ID) (uint64, bool) {
	n, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:        formatID(r.ID),
		Username:  r.Username,
		Password:  r.Password,
		Role:      models.Role(r.Role),
		CreatedAt: r.CreatedAt,
	}
}

func (r *companyRow) toModel() *models.Company {
	return &models.Company{
		ID:            formatID(r.ID),
		Name:          r.Name,
		Address:       r.Address,
		Gst:           r.Gst,
		Phone:         r.Phone,
		Email:         r.Email,
		Website:       r.Website,
		BankName:      r.BankName,
		AccountNumber: r.AccountNumber,
		IfscCode:      r.IfscCode,
		UpiId:         r.UpiId,
		LogoUrl:       r.LogoUrl,
		QrCodeUrl:     r.QrCodeUrl,
		PaymentTerms:  r.PaymentTerms,
	}
}

func companyRowFrom(id uint64, c *models.Company) *companyRow {
	return &companyRow{
		ID:            id,
		Name:          c.Name,
		Address:       c.Address,
		Gst:           c.Gst,
		Phone:         c.Phone,
		Email:         c.Email,
		Website:       c.Website,
		BankName:      c.BankName,
		AccountNumber: c.AccountNumber,
		IfscCode:      c.IfscCode,
		UpiId:         c.UpiId,
		LogoUrl:       c.LogoUrl,
		QrCodeUrl:     c.QrCodeUrl,
		PaymentTerms:  c.PaymentTerms,
	}
}

func (r *clientRow) toModel() *models.Client {
	return &models.Client{
		ID:          formatID(r.ID),
		Name:        r.Name,
		CompanyName: r.CompanyName,
		ServiceName: r.ServiceName,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		Gst:         r.Gst,
		LogoUrl:     r.LogoUrl,
		CustomId:    r.CustomId,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *invoiceRow) toModel() *models.Invoice {
	items := r.Items
	if items == nil {
		items = []models.InvoiceItem{}
	}
	inv := &models.Invoice{
		ID:            formatID(r.ID),
		InvoiceNumber: r.InvoiceNumber,
		Date:          r.Date,
		DueDate:       r.DueDate,
		ClientID:      formatID(r.ClientID),
		Status:        models.InvoiceStatus(r.Status),
		Items:         items,
		Subtotal:      r.Subtotal.InexactFloat64(),
		Tax:           r.Tax.InexactFloat64(),
		Discount:      r.Discount.InexactFloat64(),
		Total:         r.Total.InexactFloat64(),
		Description:   r.Description,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
	}
	if r.Client.ID != 0 {
		inv.Client = r.Client.toModel()
	}
	return inv
}
