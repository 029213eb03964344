package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/pagebound/bookstore-api/internal/dto"
	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/query"
	"github.com/pagebound/bookstore-api/internal/repository"
)

var (
	ErrBookNotFound     = errors.New("book not found")
	ErrCategoryNotFound = errors.New("category not found")
)

const bookCacheTTL = 60 * time.Second

// CatalogService fronts the catalog store. Only the detail view is cached;
// search and every stock-bearing read go straight to committed state.
type CatalogService struct {
	bookRepo     repository.BookRepository
	categoryRepo repository.CategoryRepository
	redisClient  *redis.Client
}

func NewCatalogService(bookRepo repository.BookRepository, categoryRepo repository.CategoryRepository, redisClient *redis.Client) *CatalogService {
	return &CatalogService{bookRepo: bookRepo, categoryRepo: categoryRepo, redisClient: redisClient}
}

func (s *CatalogService) CreateBook(ctx context.Context, req dto.CreateBookRequest) (*dto.BookResponse, error) {
	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	book := &model.Book{
		Title: req.Title, Author: req.Author, Publisher: req.Publisher,
		CategoryID: req.CategoryID, Description: req.Description, ImageURL: req.ImageURL,
		Price: req.Price, Stock: req.Stock, Rating: decimal.Zero, Active: true,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	resp := toBookResponse(book)
	return &resp, nil
}

func (s *CatalogService) GetBook(ctx context.Context, id uuid.UUID) (*dto.BookResponse, error) {
	cacheKey := "book:" + id.String()

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.BookResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	resp := toBookResponse(book)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, bookCacheTTL)
		}
	}
	return &resp, nil
}

// SearchBooks compiles the request into a catalog filter and materializes
// the result. Customers only ever see active books; the admin listing can
// opt in to inactive ones.
func (s *CatalogService) SearchBooks(ctx context.Context, req dto.SearchBooksRequest, includeInactive bool) (*dto.BookListResponse, error) {
	filter, err := buildBookFilter(req, includeInactive)
	if err != nil {
		return nil, err
	}

	books, total, err := s.bookRepo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	items := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		items = append(items, toBookResponse(&books[i]))
	}
	return &dto.BookListResponse{Books: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func buildBookFilter(req dto.SearchBooksRequest, includeInactive bool) (query.BookFilter, error) {
	sort, err := query.ParseBookSort(req.Sort)
	if err != nil {
		return query.BookFilter{}, err
	}

	filter := query.BookFilter{
		Query:           req.Query,
		Author:          req.Author,
		Publisher:       req.Publisher,
		InStockOnly:     req.InStock,
		OutOfStockOnly:  req.OutOfStock,
		IncludeInactive: includeInactive,
		Sort:            sort,
		Limit:           req.Limit,
		Offset:          (req.Page - 1) * req.Limit,
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			return query.BookFilter{}, fmt.Errorf("%w: category id %q", model.ErrUnknownEnum, req.CategoryID)
		}
		filter.CategoryID = &id
	}
	if req.PriceMin != nil {
		min, err := decimal.NewFromString(*req.PriceMin)
		if err != nil {
			return query.BookFilter{}, fmt.Errorf("parse price_min: %w", err)
		}
		filter.PriceMin = &min
	}
	if req.PriceMax != nil {
		max, err := decimal.NewFromString(*req.PriceMax)
		if err != nil {
			return query.BookFilter{}, fmt.Errorf("parse price_max: %w", err)
		}
		filter.PriceMax = &max
	}
	return filter, nil
}

func (s *CatalogService) UpdateBook(ctx context.Context, id uuid.UUID, req dto.UpdateBookRequest) (*dto.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Publisher != nil {
		book.Publisher = *req.Publisher
	}
	if req.CategoryID != nil {
		book.CategoryID = *req.CategoryID
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	if req.ImageURL != nil {
		book.ImageURL = *req.ImageURL
	}
	if req.Price != nil {
		book.Price = *req.Price
	}
	if req.Active != nil {
		book.Active = *req.Active
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toBookResponse(book)
	return &resp, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx, id)
	return nil
}

// SetStock is the staff-facing administrative override.
func (s *CatalogService) SetStock(ctx context.Context, id uuid.UUID, stock int) (*dto.BookResponse, error) {
	if err := s.bookRepo.SetStock(ctx, id, stock); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx, id)

	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return nil, ErrBookNotFound
	}
	resp := toBookResponse(book)
	return &resp, nil
}

func (s *CatalogService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, "book:"+id.String())
	}
}

// --- Categories ---

func (s *CatalogService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	category := &model.Category{
		Name: req.Name, Description: req.Description,
		SortOrder: req.SortOrder, Active: active,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, includeInactive bool) ([]dto.CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, toCategoryResponse(&categories[i]))
	}
	return items, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categoryRepo.Delete(ctx, id)
}

func toBookResponse(b *model.Book) dto.BookResponse {
	return dto.BookResponse{
		ID: b.ID, Title: b.Title, Author: b.Author, Publisher: b.Publisher,
		CategoryID: b.CategoryID, Description: b.Description, ImageURL: b.ImageURL,
		Price: b.Price, Stock: b.Stock, Rating: b.Rating, SoldCount: b.SoldCount,
		Status: string(b.Status()), CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
}

func toCategoryResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID: c.ID, Name: c.Name, Description: c.Description,
		SortOrder: c.SortOrder, Active: c.Active, BookCount: c.BookCount,
	}
}
