// Package memory provides mutex-guarded in-memory implementations of the
// domain repositories. They back the standalone/dev mode and the unit tests;
// the per-store mutex is the per-listing serialization point the bidding
// protocol requires.
package memory

import (
	"sort"
	"sync"

	"marketplace-system/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
	bids     map[string][]*domain.Bid // listingID -> bids in insertion order
	messages map[string]*domain.Message
	msgOrder []string // message IDs in insertion order
	users    map[string]*domain.User
}

func NewStore() *Store {
	return &Store{
		listings: make(map[string]*domain.Listing),
		bids:     make(map[string][]*domain.Bid),
		messages: make(map[string]*domain.Message),
		users:    make(map[string]*domain.User),
	}
}

// SaveUser registers display data for a user so bid/message views can join
// names.
func (s *Store) SaveUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

func (s *Store) userName(id string) string {
	if u, ok := s.users[id]; ok {
		return u.Name
	}
	return ""
}

func cloneListing(l *domain.Listing) *domain.Listing {
	cp := *l
	if l.StartingBid != nil {
		v := *l.StartingBid
		cp.StartingBid = &v
	}
	if l.CurrentBid != nil {
		v := *l.CurrentBid
		cp.CurrentBid = &v
	}
	if l.BidEndTime != nil {
		v := *l.BidEndTime
		cp.BidEndTime = &v
	}
	if l.WinningBidID != nil {
		v := *l.WinningBidID
		cp.WinningBidID = &v
	}
	return &cp
}

// winningBid selects the resolution winner among active bids: highest
// amount, ties broken by earliest bid time.
func winningBid(bids []*domain.Bid) *domain.Bid {
	var winner *domain.Bid
	for _, b := range bids {
		if b.Status != domain.BidActive {
			continue
		}
		if winner == nil ||
			b.Amount > winner.Amount ||
			(b.Amount == winner.Amount && b.BidTime.Before(winner.BidTime)) {
			winner = b
		}
	}
	return winner
}

func sortForListing(bids []*domain.ListingBid) {
	sort.SliceStable(bids, func(i, j int) bool {
		if bids[i].Amount != bids[j].Amount {
			return bids[i].Amount > bids[j].Amount
		}
		return bids[i].BidTime.Before(bids[j].BidTime)
	})
}

func sortForUser(bids []*domain.UserBid) {
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].BidTime.After(bids[j].BidTime)
	})
}
