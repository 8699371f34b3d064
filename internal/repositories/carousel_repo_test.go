package repositories

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"plugshop/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CarouselRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    CarouselRepository
	context context.Context
}

func (suite *CarouselRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(suite.T(), err)
	suite.mock = mock
	suite.repo = NewCarouselRepo(mock)
	suite.context = context.Background()
}

func (suite *CarouselRepoTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestCarouselRepoTestSuite(t *testing.T) {
	suite.Run(t, new(CarouselRepoTestSuite))
}

var carouselCols = []string{
	"id", "img", "title", "caption", "link", "active", "product_id", "sort_order", "created_at", "updated_at",
}

func addCarouselRow(rows *pgxmock.Rows, image *models.CarouselImage) *pgxmock.Rows {
	return rows.AddRow(image.ID, image.Img, image.Title, image.Caption, image.Link, image.Active,
		image.ProductID, image.SortOrder, image.CreatedAt, image.UpdatedAt)
}

func (suite *CarouselRepoTestSuite) TestCreate_Success() {
	image := models.NewCarouselImage("carousel_images/a.jpg", "Sale", "Up to 50% off", "/sale/")

	suite.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO carousel_images")).
		WithArgs(pgxmock.AnyArg(), "carousel_images/a.jpg", "Sale", "Up to 50% off", "/sale/", true,
			(*uuid.UUID)(nil), 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, image)
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), uuid.Nil, image.ID)
	assert.Equal(suite.T(), image.CreatedAt, image.UpdatedAt)
}

func (suite *CarouselRepoTestSuite) TestCreate_RejectsOverlongTitleWithoutQuery() {
	image := models.NewCarouselImage("carousel_images/a.jpg", strings.Repeat("t", 201), "c", "/l/")

	err := suite.repo.Create(suite.context, image)

	var verr *models.ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Contains(suite.T(), verr.Fields, "title")
}

func (suite *CarouselRepoTestSuite) TestCreate_UnknownProduct() {
	pid := uuid.New()
	image := models.NewCarouselImage("carousel_images/a.jpg", "Sale", "c", "/l/")
	image.ProductID = &pid

	suite.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO carousel_images")).
		WithArgs(pgxmock.AnyArg(), image.Img, image.Title, image.Caption, image.Link, true,
			&pid, 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := suite.repo.Create(suite.context, image)
	assert.ErrorIs(suite.T(), err, models.ErrProductNotFound)
}

func (suite *CarouselRepoTestSuite) TestGetByID() {
	pid := uuid.New()
	image := &models.CarouselImage{
		ID: uuid.New(), Img: "carousel_images/a.jpg", Title: "Sale", Caption: "c", Link: "/l/",
		Active: true, ProductID: &pid, SortOrder: 2,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}

	suite.mock.ExpectQuery(regexp.QuoteMeta("FROM carousel_images WHERE id = $1")).
		WithArgs(image.ID).
		WillReturnRows(addCarouselRow(pgxmock.NewRows(carouselCols), image))

	got, err := suite.repo.GetByID(suite.context, image.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Sale", got.Title)
	require.NotNil(suite.T(), got.ProductID)
	assert.Equal(suite.T(), pid, *got.ProductID)
	assert.Equal(suite.T(), 2, got.SortOrder)
}

func (suite *CarouselRepoTestSuite) TestGetByID_NotFound() {
	id := uuid.New()
	suite.mock.ExpectQuery(regexp.QuoteMeta("FROM carousel_images WHERE id = $1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.context, id)
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *CarouselRepoTestSuite) TestUpdate() {
	image := &models.CarouselImage{ID: uuid.New(), Img: "carousel_images/b.png", Title: "New", Caption: "c", Link: "/l/"}

	suite.mock.ExpectExec(regexp.QuoteMeta("UPDATE carousel_images")).
		WithArgs(image.Img, image.Title, image.Caption, image.Link, false, (*uuid.UUID)(nil), 0, pgxmock.AnyArg(), image.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(suite.T(), suite.repo.Update(suite.context, image))

	suite.mock.ExpectExec(regexp.QuoteMeta("UPDATE carousel_images")).
		WithArgs(image.Img, image.Title, image.Caption, image.Link, false, (*uuid.UUID)(nil), 0, pgxmock.AnyArg(), image.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(suite.T(), suite.repo.Update(suite.context, image), models.ErrNotFound)
}

func (suite *CarouselRepoTestSuite) TestDelete() {
	id := uuid.New()

	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM carousel_images WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	assert.NoError(suite.T(), suite.repo.Delete(suite.context, id))

	suite.mock.ExpectExec(regexp.QuoteMeta("DELETE FROM carousel_images WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(suite.T(), suite.repo.Delete(suite.context, id), models.ErrNotFound)
}

func (suite *CarouselRepoTestSuite) TestListActive_OrderedAndEmpty() {
	now := time.Now().UTC()
	first := &models.CarouselImage{ID: uuid.New(), Img: "carousel_images/1.jpg", Title: "One", Active: true, SortOrder: 0, CreatedAt: now, UpdatedAt: now}
	second := &models.CarouselImage{ID: uuid.New(), Img: "carousel_images/2.jpg", Title: "Two", Active: true, SortOrder: 1, CreatedAt: now, UpdatedAt: now}

	rows := pgxmock.NewRows(carouselCols)
	addCarouselRow(rows, first)
	addCarouselRow(rows, second)

	suite.mock.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE")).WillReturnRows(rows)

	images, err := suite.repo.ListActive(suite.context)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), images, 2)
	assert.Equal(suite.T(), "One", images[0].Title)
	assert.Equal(suite.T(), "Two", images[1].Title)

	suite.mock.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE")).WillReturnRows(pgxmock.NewRows(carouselCols))

	images, err = suite.repo.ListActive(suite.context)
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), images)
	assert.Empty(suite.T(), images)
}

func (suite *CarouselRepoTestSuite) TestList_Paginates() {
	suite.mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
		WithArgs(20, 40).
		WillReturnRows(pgxmock.NewRows(carouselCols))

	images, err := suite.repo.List(suite.context, 20, 40)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), images)
}

func (suite *CarouselRepoTestSuite) TestListImageKeys() {
	suite.mock.ExpectQuery(regexp.QuoteMeta("SELECT img FROM carousel_images")).
		WillReturnRows(pgxmock.NewRows([]string{"img"}).AddRow("carousel_images/1.jpg").AddRow("carousel_images/2.jpg"))

	keys, err := suite.repo.ListImageKeys(suite.context)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"carousel_images/1.jpg", "carousel_images/2.jpg"}, keys)
}
