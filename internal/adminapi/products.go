package adminapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
	"github.com/talkincode/bakeshop/internal/catalog"
	"github.com/talkincode/bakeshop/internal/webserver"
	"go.uber.org/zap"
)

const maxProductImageSize = 5 << 20

func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
	webserver.ApiPOST("/products/upload-images", uploadProductImages)
}

func listProducts(c echo.Context) error {
	repo := catalog.NewGormRepository(GetDB(c))
	products, err := repo.GetAll(c.Request().Context())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load products", err.Error())
	}
	return ok(c, catalog.ToViews(products))
}

func getProduct(c echo.Context) error {
	repo := catalog.NewGormRepository(GetDB(c))
	p, err := repo.GetByID(c.Request().Context(), c.Param("id"))
	if err == catalog.ErrProductNotFound {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load product", err.Error())
	}
	return ok(c, catalog.ToView(*p))
}

func createProduct(c echo.Context) error {
	var in catalog.ProductUpsert
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Product id is required", nil)
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Product title is required", nil)
	}

	repo := catalog.NewGormRepository(GetDB(c))
	ctx := c.Request().Context()
	exists, err := repo.Exists(ctx, in.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check product", err.Error())
	}
	if exists {
		return fail(c, http.StatusConflict, "ALREADY_EXISTS", "Product id already exists", nil)
	}

	p, err := repo.Upsert(ctx, nil, in)
	if err == catalog.ErrProductExists {
		return fail(c, http.StatusConflict, "ALREADY_EXISTS", "Product id already exists", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	zap.L().Info("product created", zap.String("id", p.ID), zap.String("operator", currentOperator(c)))
	return ok(c, catalog.ToView(*p))
}

func updateProduct(c echo.Context) error {
	var in catalog.ProductUpsert
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	in.ID = c.Param("id")

	repo := catalog.NewGormRepository(GetDB(c))
	ctx := c.Request().Context()
	current, err := repo.GetByID(ctx, in.ID)
	if err == catalog.ErrProductNotFound {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load product", err.Error())
	}

	p, err := repo.Upsert(ctx, current, in)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	zap.L().Info("product updated", zap.String("id", p.ID), zap.String("operator", currentOperator(c)))
	return ok(c, catalog.ToView(*p))
}

func deleteProduct(c echo.Context) error {
	repo := catalog.NewGormRepository(GetDB(c))
	err := repo.Delete(c.Request().Context(), c.Param("id"))
	if err == catalog.ErrProductNotFound {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	zap.L().Info("product deleted", zap.String("id", c.Param("id")), zap.String("operator", currentOperator(c)))
	return ok(c, "deleted")
}

// uploadProductImages stages admin-uploaded product images and returns
// their public URLs. Only image content types under 5MB are accepted.
func uploadProductImages(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Multipart form required", nil)
	}
	files := form.File["images"]
	if len(files) == 0 {
		files = form.File["image"]
	}
	if len(files) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No image files provided", nil)
	}

	dir := GetAppContext(c).Config().ProductImagesDir()
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxProductImageSize {
			return fail(c, http.StatusBadRequest, "FILE_TOO_LARGE", "Image exceeds 5MB limit", fh.Filename)
		}
		if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
			return fail(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Only image files are accepted", fh.Filename)
		}
		name := fmt.Sprintf("product-%d-%s%s",
			time.Now().UnixMilli(), random.String(8), filepath.Ext(fh.Filename))
		if err := saveUpload(fh, filepath.Join(dir, name)); err != nil {
			return fail(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to store image", err.Error())
		}
		urls = append(urls, "/uploads/products/"+name)
	}
	return ok(c, map[string]interface{}{"urls": urls})
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}
