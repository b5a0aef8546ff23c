package document

import (
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	usersCollection     = "users"
	companiesCollection = "companies"
	clientsCollection   = "clients"
	invoicesCollection  = "invoices"
	countersCollection  = "counters"
	sessionsCollection  = "sessions"

	clientCounter = "clients"
	companyKey    = "company"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Username  string             `bson:"username"`
	Password  string             `bson:"password"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// companyDoc carries a fixed key with a unique index so there is only ever one.
type companyDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Key           string             `bson:"key"`
	Name          string             `bson:"name"`
	Address       string             `bson:"address"`
	Gst           *string            `bson:"gst"`
	Phone         *string            `bson:"phone"`
	Email         *string            `bson:"email"`
	Website       *string            `bson:"website"`
	BankName      *string            `bson:"bankName"`
	AccountNumber *string            `bson:"accountNumber"`
	IfscCode      *string            `bson:"ifscCode"`
	UpiId         *string            `bson:"upiId"`
	LogoUrl       *string            `bson:"logoUrl"`
	QrCodeUrl     *string            `bson:"qrCodeUrl"`
	PaymentTerms  *string            `bson:"paymentTerms"`
}

type clientDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	CompanyName *string            `bson:"companyName"`
	ServiceName *string            `bson:"serviceName"`
	Address     *string            `bson:"address"`
	Phone       *string            `bson:"phone"`
	Email       *string            `bson:"email"`
	Gst         *string            `bson:"gst"`
	LogoUrl     *string            `bson:"logoUrl"`
	CustomId    *string            `bson:"customId"`
	CreatedAt   time.Time          `bson:"createdAt"`
	// the two below are not part of the snapshot embedded in invoices
	InvoiceSeq int                  `bson:"invoiceSeq,omitempty"`
	Invoices   []primitive.ObjectID `bson:"invoices,omitempty"`
}

type invoiceDoc struct {
	ID            primitive.ObjectID   `bson:"_id"`
	InvoiceNumber string               `bson:"invoiceNumber"`
	Date          time.Time            `bson:"date"`
	DueDate       *time.Time           `bson:"dueDate"`
	ClientID      primitive.ObjectID   `bson:"clientId"`
	Client        *clientDoc           `bson:"client,omitempty"`
	Status        string               `bson:"status"`
	Items         []models.InvoiceItem `bson:"items"`
	Subtotal      float64              `bson:"subtotal"`
	Tax           float64              `bson:"tax"`
	Discount      float64              `bson:"discount"`
	Total         float64              `bson:"total"`
	Description   *string              `bson:"description"`
	Notes         *string              `bson:"notes"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int    `bson:"seq"`
}

type sessionDoc struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func formatID(id primitive.ObjectID) models.ID {
	return models.ID(id.Hex())
}

// parseID reports false for ids that are not ObjectIDs; callers treat them as unknown.
func parseID(id models.ID) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// mongo keeps milliseconds
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:        formatID(d.ID),
		Username:  d.Username,
		Password:  d.Password,
		Role:      models.Role(d.Role),
		CreatedAt: d.CreatedAt,
	}
}

func (d *companyDoc) toModel() *models.Company {
	return &models.Company{
		ID:            formatID(d.ID),
		Name:          d.Name,
		Address:       d.Address,
		Gst:           d.Gst,
		Phone:         d.Phone,
		Email:         d.Email,
		Website:       d.Website,
		BankName:      d.BankName,
		AccountNumber: d.AccountNumber,
		IfscCode:      d.IfscCode,
		UpiId:         d.UpiId,
		LogoUrl:       d.LogoUrl,
		QrCodeUrl:     d.QrCodeUrl,
		PaymentTerms:  d.PaymentTerms,
	}
}

func companyDocFrom(id primitive.ObjectID, c *models.Company) *companyDoc {
	return &companyDoc{
		ID:            id,
		Key:           companyKey,
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

func (d *clientDoc) toModel() *models.Client {
	c := &models.Client{
		ID:          formatID(d.ID),
		Name:        d.Name,
		CompanyName: d.CompanyName,
		ServiceName: d.ServiceName,
		Address:     d.Address,
		Phone:       d.Phone,
		Email:       d.Email,
		Gst:         d.Gst,
		LogoUrl:     d.LogoUrl,
		CustomId:    d.CustomId,
		CreatedAt:   d.CreatedAt,
	}
	for _, id := range d.Invoices {
		c.Invoices = append(c.Invoices, formatID(id))
	}
	return c
}

// snapshot is the copy of the client embedded in its invoices.
func (d *clientDoc) snapshot() *clientDoc {
	s := *d
	s.InvoiceSeq = 0
	s.Invoices = nil
	return &s
}

func (d *invoiceDoc) toModel() *models.Invoice {
	items := d.Items
	if items == nil {
		items = []models.InvoiceItem{}
	}
	inv := &models.Invoice{
		ID:            formatID(d.ID),
		InvoiceNumber: d.InvoiceNumber,
		Date:          d.Date,
		DueDate:       d.DueDate,
		ClientID:      formatID(d.ClientID),
		Status:        models.InvoiceStatus(d.Status),
		Items:         items,
		Subtotal:      d.Subtotal,
		Tax:           d.Tax,
		Discount:      d.Discount,
		Total:         d.Total,
		Description:   d.Description,
		Notes:         d.Notes,
		CreatedAt:     d.CreatedAt,
	}
	if d.Client != nil {
		inv.Client = d.Client.toModel()
	}
	return inv
}
