package extract_test

import (
	"bytes"
	"errors"
	"image"
	"testing"

	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/fadedpez/pokerscribe/internal/logging"
	"github.com/fadedpez/pokerscribe/pkg/entities"
	"github.com/fadedpez/pokerscribe/pkg/extract"
	"github.com/fadedpez/pokerscribe/pkg/extract/mock"
	"github.com/fadedpez/pokerscribe/pkg/layout"
)

type ExtractorTestSuite struct {
	suite.Suite
	pre       *mock.Preprocessor
	rec       *mock.Recognizer
	logOutput *bytes.Buffer
	layout    *layout.RegionLayout
	extractor *extract.Extractor
	frame     image.Image
}

func (s *ExtractorTestSuite) SetupTest() {
	s.pre = new(mock.Preprocessor)
	s.rec = new(mock.Recognizer)
	s.logOutput = new(bytes.Buffer)
	s.layout = layout.Default()
	s.extractor = extract.NewExtractor(s.layout, s.pre, s.rec, extract.Options{
		Logger: logging.NewLoggerTo(s.logOutput, logging.DEBUG),
	})
	s.frame = image.NewRGBA(image.Rect(0, 0, 1280, 720))
}

// region returns the pixel rectangle the extractor should crop for key
func (s *ExtractorTestSuite) region(key layout.FieldKey) image.Rectangle {
	r, err := s.layout.Resolve(key, 1280, 720)
	s.Require().NoError(err)
	return r
}

// expectText wires the mocks so that reading key yields text
func (s *ExtractorTestSuite) expectText(key layout.FieldKey, mode extract.SegMode, text string) {
	bitmap := []byte(key.String())
	s.pre.On("Prepare", s.frame, s.region(key), false).Return(bitmap, nil).Once()
	s.rec.On("Recognize", bitmap, mode).Return(text, nil).Once()
}

func (s *ExtractorTestSuite) TestNumberParsesRecognizedText() {
	s.expectText(layout.TableKey(layout.Pot), extract.SingleLine, " Pot: 1,234 \n")

	s.Equal(1234.0, s.extractor.Pot(s.frame))
	s.Equal(int64(0), s.extractor.Failures())
	s.pre.AssertExpectations(s.T())
	s.rec.AssertExpectations(s.T())
}

func (s *ExtractorTestSuite) TestActionAndBlinds() {
	s.expectText(layout.SeatKey(2, layout.Action), extract.SingleLine, "raises to 250")
	s.expectText(layout.TableKey(layout.Blinds), extract.SingleLine, "10/20")

	s.Equal(&entities.Action{Kind: entities.ActionRaise, Amount: 250}, s.extractor.Action(s.frame, 2))
	sb, bb := s.extractor.Blinds(s.frame)
	s.Equal(10.0, sb)
	s.Equal(20.0, bb)
}

func (s *ExtractorTestSuite) TestCardsUseBlockMode() {
	s.expectText(layout.SeatKey(1, layout.Cards), extract.Block, "Ah Kd")

	s.Equal([]string{"Ah", "Kd"}, s.extractor.Cards(s.frame, layout.SeatKey(1, layout.Cards)))
}

func (s *ExtractorTestSuite) TestRecognizerErrorYieldsSoftDefault() {
	key := layout.SeatKey(1, layout.Stack)
	bitmap := []byte("stack")
	s.pre.On("Prepare", s.frame, s.region(key), false).Return(bitmap, nil)
	s.rec.On("Recognize", bitmap, extract.SingleLine).Return("", errors.New("tesseract exploded"))

	s.Equal(0.0, s.extractor.Stack(s.frame, 1))
	s.Equal(int64(1), s.extractor.Failures())
	s.Contains(s.logOutput.String(), "FIELD_READ_FAILURE")
	s.Contains(s.logOutput.String(), "player_1.stack")
	s.Contains(s.logOutput.String(), "tesseract exploded")
}

func (s *ExtractorTestSuite) TestPanicIsRecovered() {
	key := layout.SeatKey(3, layout.Name)
	s.pre.On("Prepare", s.frame, s.region(key), false).Run(func(testifymock.Arguments) {
		panic("corrupt frame")
	})

	s.NotPanics(func() {
		s.Equal("", s.extractor.Name(s.frame, 3))
	})
	s.Equal(int64(1), s.extractor.Failures())
	s.Contains(s.logOutput.String(), "corrupt frame")
}

func (s *ExtractorTestSuite) TestFailureDoesNotAffectOtherFields() {
	nameKey := layout.SeatKey(1, layout.Name)
	s.pre.On("Prepare", s.frame, s.region(nameKey), false).Return(nil, errors.New("crop failed"))
	s.expectText(layout.SeatKey(1, layout.Stack), extract.SingleLine, "980")
	s.expectText(layout.TableKey(layout.Pot), extract.SingleLine, "40")

	s.Equal("", s.extractor.Name(s.frame, 1))
	s.Equal(980.0, s.extractor.Stack(s.frame, 1))
	s.Equal(40.0, s.extractor.Pot(s.frame))
	s.Equal(int64(1), s.extractor.Failures())
	s.Equal(int64(3), s.extractor.Reads())
}

func (s *ExtractorTestSuite) TestNilFrameIsAFieldFailure() {
	s.Equal(0.0, s.extractor.Pot(nil))
	s.Equal(int64(1), s.extractor.Failures())
	s.pre.AssertNotCalled(s.T(), "Prepare", testifymock.Anything, testifymock.Anything, testifymock.Anything)
}

func (s *ExtractorTestSuite) TestInvertedFields() {
	e := extract.NewExtractor(s.layout, s.pre, s.rec, extract.Options{
		Inverted: map[layout.FieldID]bool{layout.Pot: true},
		Logger:   logging.NewLoggerTo(s.logOutput, logging.DEBUG),
	})
	key := layout.TableKey(layout.Pot)
	s.pre.On("Prepare", s.frame, s.region(key), true).Return([]byte("pot"), nil)
	s.rec.On("Recognize", []byte("pot"), extract.SingleLine).Return("75", nil)

	s.Equal(75.0, e.Pot(s.frame))
}

func (s *ExtractorTestSuite) TestCountryIsPlaceholder() {
	s.Equal("Unknown", s.extractor.Country(s.frame, 1))
}

func TestExtractorSuite(t *testing.T) {
	suite.Run(t, new(ExtractorTestSuite))
}
