package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Abhi-coder-crypto/Inv-gen/export"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/uploads"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func pathID(c *gin.Context) models.ID {
	return models.ID(c.Param("id"))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// company

func (s *Server) getCompany(c *gin.Context) {
	company, err := s.store.GetCompany(c.Request.Context())
	if err != nil {
		respondError(c, "getCompany", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

func (s *Server) updateCompany(c *gin.Context) {
	var input models.NewCompany
	if !bindJSON(c, &input) {
		return
	}
	company, err := s.store.UpdateCompany(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "updateCompany", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// clients

func (s *Server) getClients(c *gin.Context) {
	clients, err := s.store.GetClients(c.Request.Context())
	if err != nil {
		respondError(c, "getClients", err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (s *Server) getClient(c *gin.Context) {
	client, err := s.store.GetClient(c.Request.Context(), pathID(c))
	if err != nil {
		respondError(c, "getClient", err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (s *Server) getClientInvoices(c *gin.Context) {
	invoices, err := storage.ClientInvoices(c.Request.Context(), s.store, pathID(c))
	if err != nil {
		respondError(c, "getClientInvoices", err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (s *Server) createClient(c *gin.Context) {
	var input models.NewClient
	if !bindJSON(c, &input) {
		return
	}
	client, err := s.store.CreateClient(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "createClient", err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (s *Server) updateClient(c *gin.Context) {
	var update models.ClientUpdate
	if !bindJSON(c, &update) {
		return
	}
	client, err := s.store.UpdateClient(c.Request.Context(), pathID(c), &update)
	if err != nil {
		respondError(c, "updateClient", err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// invoices

func (s *Server) getInvoices(c *gin.Context) {
	invoices, err := s.store.GetInvoices(c.Request.Context())
	if err != nil {
		respondError(c, "getInvoices", err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

func (s *Server) getInvoice(c *gin.Context) {
	invoice, err := s.store.GetInvoice(c.Request.Context(), pathID(c))
	if err != nil {
		respondError(c, "getInvoice", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (s *Server) createInvoice(c *gin.Context) {
	var input models.NewInvoice
	if !bindJSON(c, &input) {
		return
	}
	ctx, span := tracer.Start(c.Request.Context(), "CreateInvoice",
		trace.WithAttributes(attribute.String("client.id", input.ClientID.String())))
	invoice, err := s.store.CreateInvoice(ctx, &input)
	endSpan(span, err)
	if err != nil {
		respondError(c, "createInvoice", err)
		return
	}
	s.metrics.invoicesCreated.Inc()
	c.JSON(http.StatusCreated, invoice)
}

func (s *Server) updateInvoice(c *gin.Context) {
	var update models.InvoiceUpdate
	if !bindJSON(c, &update) {
		return
	}
	ctx, span := tracer.Start(c.Request.Context(), "UpdateInvoice",
		trace.WithAttributes(attribute.String("invoice.id", pathID(c).String())))
	invoice, err := s.store.UpdateInvoice(ctx, pathID(c), &update)
	endSpan(span, err)
	if err != nil {
		respondError(c, "updateInvoice", err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (s *Server) deleteInvoice(c *gin.Context) {
	id := pathID(c)
	ctx, span := tracer.Start(c.Request.Context(), "DeleteInvoice",
		trace.WithAttributes(attribute.String("invoice.id", id.String())))
	deleted, err := s.store.DeleteInvoice(ctx, id)
	endSpan(span, err)
	if err != nil {
		respondError(c, "deleteInvoice", err)
		return
	}
	if !deleted {
		respondError(c, "deleteInvoice", models.NewNotFoundError("invoice", id))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) exportInvoices(c *gin.Context) {
	invoices, err := s.store.GetInvoices(c.Request.Context())
	if err != nil {
		respondError(c, "exportInvoices", err)
		return
	}
	var buf bytes.Buffer
	if err := export.Invoices(&buf, invoices); err != nil {
		respondError(c, "exportInvoices", err)
		return
	}
	filename := fmt.Sprintf("invoices-%s.xlsx", s.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) dashboard(c *gin.Context) {
	summary, err := storage.Summarize(c.Request.Context(), s.store, s.now())
	if err != nil {
		respondError(c, "dashboard", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) upload(c *gin.Context) {
	if s.uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Uploads are not configured"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uploads.MaxSizeBytes+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if fh.Size > uploads.MaxSizeBytes {
		respondError(c, "upload", models.NewValidationError("file", "file size exceeds 5MB limit"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, "upload", models.Internal("open upload", err))
		return
	}
	defer f.Close()

	url, err := s.uploads.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		respondError(c, "upload", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
