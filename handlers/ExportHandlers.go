package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"backend/models"
	"backend/repository"
	"backend/services"
)

// comparisonForExport rebuilds the deterministic comparison for an RFP.
// Exports always use the rule-based rubric so a report never depends on
// remote availability.
func comparisonForExport(c *gin.Context, rfps *repository.RFPRepository, proposals *repository.ProposalRepository, ai *services.AIService) (*models.RFP, []models.Proposal, *models.ComparisonResult, bool) {
	rfp, err := rfps.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "RFP not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch RFP", "details": err.Error()})
		}
		return nil, nil, nil, false
	}

	comparable, err := proposals.ListComparable(c.Request.Context(), rfp.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch proposals", "details": err.Error()})
		return nil, nil, nil, false
	}
	if len(comparable) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":        "Need at least 2 proposals to compare",
			"currentCount": len(comparable),
		})
		return nil, nil, nil, false
	}

	comparison, err := ai.Fallback().EvaluateProposals(c.Request.Context(), comparable, rfp)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build comparison", "details": err.Error()})
		return nil, nil, nil, false
	}
	return rfp, comparable, comparison, true
}

func vendorNames(c *gin.Context, vendors *repository.VendorRepository, proposals []models.Proposal) map[string]string {
	names := make(map[string]string, len(proposals))
	for _, p := range proposals {
		if vendor, err := vendors.GetByID(c.Request.Context(), p.VendorID); err == nil {
			names[p.VendorID] = vendor.Name
		} else {
			names[p.VendorID] = "Unknown Vendor"
		}
	}
	return names
}

// ExportComparisonExcel writes the proposal comparison as an xlsx
// workbook with a summary sheet and a scores sheet.
// @Summary Export comparison (Excel)
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "RFP ID"
// @Success 200 {file} xlsx
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfps/{id}/export [get]
func ExportComparisonExcel(rfps *repository.RFPRepository, proposals *repository.ProposalRepository, vendors *repository.VendorRepository, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfp, comparable, comparison, ok := comparisonForExport(c, rfps, proposals, ai)
		if !ok {
			return
		}
		names := vendorNames(c, vendors, comparable)
		byVendor := make(map[string]models.Proposal, len(comparable))
		for _, p := range comparable {
			byVendor[p.VendorID] = p
		}

		f := excelize.NewFile()
		summarySheet := "Summary"
		f.SetSheetName("Sheet1", summarySheet)

		f.SetCellValue(summarySheet, "A1", "Proposal Comparison")
		f.SetCellValue(summarySheet, "A2", "RFP")
		f.SetCellValue(summarySheet, "B2", rfp.Title)
		f.SetCellValue(summarySheet, "A3", "Proposals")
		f.SetCellValue(summarySheet, "B3", len(comparable))
		if rfp.Budget != nil {
			f.SetCellValue(summarySheet, "A4", "Budget")
			f.SetCellValue(summarySheet, "B4", *rfp.Budget)
		}
		f.SetCellValue(summarySheet, "A6", "Recommendation")
		f.SetCellValue(summarySheet, "B6", names[comparison.Recommendation.RecommendedVendorID])
		f.SetCellValue(summarySheet, "A7", "Reasoning")
		f.SetCellValue(summarySheet, "B7", comparison.Recommendation.Reasoning)
		if comparison.Recommendation.PriceSavings != nil {
			f.SetCellValue(summarySheet, "A8", "Price Savings")
			f.SetCellValue(summarySheet, "B8", *comparison.Recommendation.PriceSavings)
		}
		f.SetCellValue(summarySheet, "A10", comparison.Summary)

		scoreSheet := "Scores"
		f.NewSheet(scoreSheet)
		headers := []string{"Rank", "Vendor", "Score", "Price (40)", "Delivery (25)", "Warranty (15)", "Terms (10)", "Completeness (10)", "Total Price", "Compliance"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(scoreSheet, cell, h)
		}
		for row, a := range comparison.Analysis {
			values := []interface{}{
				a.Rank,
				names[a.VendorID],
				a.Score,
				a.ScoreBreakdown.Price,
				a.ScoreBreakdown.Delivery,
				a.ScoreBreakdown.Warranty,
				a.ScoreBreakdown.Terms,
				a.ScoreBreakdown.Completeness,
			}
			if p, ok := byVendor[a.VendorID]; ok && p.TotalPrice != nil {
				values = append(values, *p.TotalPrice)
			} else {
				values = append(values, "N/A")
			}
			values = append(values, a.ComplianceCheck.OverallCompliance)

			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				f.SetCellValue(scoreSheet, cell, v)
			}
		}

		c.Header("Content-Disposition", "attachment;filename=proposal_comparison.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file", "details": err.Error()})
		}
	}
}

// ExportComparisonPDF renders the proposal comparison as a one-page PDF
// report.
// @Summary Export comparison (PDF)
// @Tags Export
// @Produce application/pdf
// @Param id path string true "RFP ID"
// @Success 200 {file} pdf
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfps/{id}/export/pdf [get]
func ExportComparisonPDF(rfps *repository.RFPRepository, proposals *repository.ProposalRepository, vendors *repository.VendorRepository, ai *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfp, comparable, comparison, ok := comparisonForExport(c, rfps, proposals, ai)
		if !ok {
			return
		}
		names := vendorNames(c, vendors, comparable)
		titleCaser := cases.Title(language.English)

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetMargins(10, 10, 10)

		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, "Proposal Comparison Report")
		pdf.Ln(12)

		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(190, 8, rfp.Title)
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		if rfp.Budget != nil {
			pdf.Cell(95, 6, fmt.Sprintf("Budget: $%.2f", *rfp.Budget))
		}
		if rfp.DeliveryDate != nil {
			pdf.Cell(95, 6, fmt.Sprintf("Delivery Required: %s", rfp.DeliveryDate.Format("02-Jan-2006")))
		}
		pdf.Ln(10)

		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(15, 8, "Rank", "1", 0, "C", true, 0, "")
		pdf.CellFormat(55, 8, "Vendor", "1", 0, "L", true, 0, "")
		pdf.CellFormat(25, 8, "Score", "1", 0, "C", true, 0, "")
		pdf.CellFormat(35, 8, "Total Price", "1", 0, "C", true, 0, "")
		pdf.CellFormat(60, 8, "Compliance", "1", 1, "C", true, 0, "")

		byVendor := make(map[string]models.Proposal, len(comparable))
		for _, p := range comparable {
			byVendor[p.VendorID] = p
		}

		pdf.SetFont("Arial", "", 10)
		for _, a := range comparison.Analysis {
			price := "N/A"
			if p, ok := byVendor[a.VendorID]; ok && p.TotalPrice != nil {
				price = fmt.Sprintf("$%.2f", *p.TotalPrice)
			}
			pdf.CellFormat(15, 8, fmt.Sprintf("%d", a.Rank), "1", 0, "C", false, 0, "")
			pdf.CellFormat(55, 8, titleCaser.String(names[a.VendorID]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 8, fmt.Sprintf("%d/100", a.Score), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 8, price, "1", 0, "R", false, 0, "")
			pdf.CellFormat(60, 8, a.ComplianceCheck.OverallCompliance, "1", 1, "C", false, 0, "")
		}

		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(190, 8, "Recommendation")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 6, fmt.Sprintf("Recommended vendor: %s", names[comparison.Recommendation.RecommendedVendorID]), "", "", false)
		pdf.MultiCell(190, 6, comparison.Recommendation.Reasoning, "", "", false)
		pdf.Ln(4)
		pdf.MultiCell(190, 6, comparison.Summary, "", "", false)

		c.Header("Content-Disposition", "attachment;filename=proposal_comparison.pdf")
		c.Header("Content-Type", "application/pdf")
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write PDF", "details": err.Error()})
		}
	}
}
