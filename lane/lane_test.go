package lane_test

import (
	"errors"

	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/lane"
	"github.com/sarchlab/ternsim/trit"
)

type recordingSink struct {
	byLane map[int][]trit.Word
	err    error
}

func (s *recordingSink) Dispatch(laneID int, words []trit.Word) error {
	if s.err != nil {
		return s.err
	}
	if s.byLane == nil {
		s.byLane = map[int][]trit.Word{}
	}
	s.byLane[laneID] = append(s.byLane[laneID], words...)
	return nil
}

var _ = Describe("Mux", func() {
	var (
		mockCtrl *gomock.Controller
		cfgs     []config.LaneConfig
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		cfgs = config.DefaultConfig().Lanes
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should consult the physics collaborator exactly once", func() {
		v := NewMockValidator(mockCtrl)
		v.EXPECT().
			Validate(gomock.Len(len(cfgs))).
			Return(lane.Verdict{CollisionFree: true, Confidence: 0.9}, nil).
			Times(1)

		m, err := lane.NewMux(cfgs, v)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Verdict().Confidence).To(BeNumerically("~", 0.9))

		// Dispatches must not re-validate.
		h, err := m.Bind(0, &recordingSink{})
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Dispatch([]trit.Word{trit.FromInt64(1)})).To(Succeed())
	})

	It("should fail fast when the collaborator rejects the assignment", func() {
		v := NewMockValidator(mockCtrl)
		v.EXPECT().
			Validate(gomock.Any()).
			Return(lane.Verdict{CollisionFree: false}, nil)

		_, err := lane.NewMux(cfgs, v)
		Expect(err).To(HaveOccurred())
		var cfgErr *config.ConfigurationError
		Expect(err).To(BeAssignableToTypeOf(cfgErr))
	})

	It("should treat a collaborator error as a ConfigurationError", func() {
		v := NewMockValidator(mockCtrl)
		v.EXPECT().
			Validate(gomock.Any()).
			Return(lane.Verdict{}, errors.New("solver timeout"))

		_, err := lane.NewMux(cfgs, v)
		Expect(err).To(HaveOccurred())
	})

	It("should refuse to run without a collaborator", func() {
		_, err := lane.NewMux(cfgs, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should count effective channels over enabled lanes only", func() {
		cfgs[1].Enabled = false
		cfgs[4].Enabled = false

		m, err := lane.NewMux(cfgs, lane.AnalyticValidator{})
		Expect(err).NotTo(HaveOccurred())
		// 4 enabled lanes x 3 sub-channels.
		Expect(m.EffectiveChannels()).To(Equal(12))
		Expect(m.EnabledIDs()).To(Equal([]int{0, 2, 3, 5}))
	})

	It("should refuse to bind a disabled lane", func() {
		cfgs[2].Enabled = false
		m, err := lane.NewMux(cfgs, lane.AnalyticValidator{})
		Expect(err).NotTo(HaveOccurred())

		_, err = m.Bind(2, &recordingSink{})
		Expect(err).To(HaveOccurred())
	})

	It("should keep per-lane dispatch counts separate", func() {
		m, err := lane.NewMux(cfgs, lane.AnalyticValidator{})
		Expect(err).NotTo(HaveOccurred())

		sink := &recordingSink{}
		h0, err := m.Bind(0, sink)
		Expect(err).NotTo(HaveOccurred())
		h1, err := m.Bind(1, sink)
		Expect(err).NotTo(HaveOccurred())

		Expect(h0.Dispatch(make([]trit.Word, 3))).To(Succeed())
		Expect(h1.Dispatch(make([]trit.Word, 5))).To(Succeed())

		Expect(m.Dispatched(0)).To(Equal(uint64(3)))
		Expect(m.Dispatched(1)).To(Equal(uint64(5)))
		Expect(sink.byLane[0]).To(HaveLen(3))
		Expect(sink.byLane[1]).To(HaveLen(5))
	})
})

var _ = Describe("AnalyticValidator", func() {
	It("should pass the default lane grid", func() {
		m := config.DefaultConfig().Lanes
		var lanes []lane.Lane
		for _, c := range m {
			lanes = append(lanes, lane.Lane{
				ID:             c.ID,
				BaseWavelength: c.BaseWavelength,
				SubChannels:    c.SubChannels,
				Enabled:        c.Enabled,
			})
		}

		verdict, err := lane.AnalyticValidator{}.Validate(lanes)
		Expect(err).NotTo(HaveOccurred())
		Expect(verdict.CollisionFree).To(BeTrue())
		Expect(verdict.Confidence).To(BeNumerically(">", 0))
	})

	It("should reject two lanes sharing an output wavelength", func() {
		lanes := []lane.Lane{
			{ID: 0, BaseWavelength: 1530, SubChannels: 3, Enabled: true},
			{ID: 1, BaseWavelength: 1530, SubChannels: 3, Enabled: true},
		}

		verdict, err := lane.AnalyticValidator{}.Validate(lanes)
		Expect(err).NotTo(HaveOccurred())
		Expect(verdict.CollisionFree).To(BeFalse())
	})

	It("should ignore disabled lanes in the collision check", func() {
		lanes := []lane.Lane{
			{ID: 0, BaseWavelength: 1530, SubChannels: 3, Enabled: true},
			{ID: 1, BaseWavelength: 1530, SubChannels: 3, Enabled: false},
		}

		verdict, err := lane.AnalyticValidator{}.Validate(lanes)
		Expect(err).NotTo(HaveOccurred())
		Expect(verdict.CollisionFree).To(BeTrue())
	})
})
