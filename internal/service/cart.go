package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pagebound/bookstore-api/internal/cart"
	"github.com/pagebound/bookstore-api/internal/dto"
	"github.com/pagebound/bookstore-api/internal/repository"
)

var ErrBookNotAvailable = errors.New("book is not available for sale")

// CartService mediates between the catalog store and the in-memory cart
// registry: every add goes through a fresh catalog read so the staged stock
// snapshot tracks live stock.
type CartService struct {
	bookRepo repository.BookRepository
	carts    *cart.Registry
}

func NewCartService(bookRepo repository.BookRepository, carts *cart.Registry) *CartService {
	return &CartService{bookRepo: bookRepo, carts: carts}
}

func (s *CartService) Cart(userID uuid.UUID) *cart.Cart {
	return s.carts.For(userID)
}

func (s *CartService) AddItem(ctx context.Context, userID, bookID uuid.UUID) error {
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return fmt.Errorf("get book: %w", err)
	}
	if book == nil {
		return ErrBookNotFound
	}
	if !book.Active {
		return ErrBookNotAvailable
	}
	return s.carts.For(userID).Add(*book)
}

func (s *CartService) Increase(userID, bookID uuid.UUID) error {
	return s.carts.For(userID).Increase(bookID)
}

func (s *CartService) Decrease(userID, bookID uuid.UUID) error {
	return s.carts.For(userID).Decrease(bookID)
}

func (s *CartService) Remove(userID, bookID uuid.UUID) {
	s.carts.For(userID).Remove(bookID)
}

func (s *CartService) Clear(userID uuid.UUID) {
	s.carts.For(userID).Clear()
}

func (s *CartService) Snapshot(userID uuid.UUID) dto.CartResponse {
	c := s.carts.For(userID)
	entries := c.Entries()

	items := make([]dto.CartItemResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.CartItemResponse{
			BookID:    entry.Book.ID,
			Title:     entry.Book.Title,
			Author:    entry.Book.Author,
			ImageURL:  entry.Book.ImageURL,
			UnitPrice: entry.Book.Price,
			Quantity:  entry.Quantity,
			LineTotal: entry.LineTotal(),
			Stock:     entry.Book.Stock,
		})
	}
	return dto.CartResponse{Items: items, TotalPrice: c.TotalPrice()}
}
