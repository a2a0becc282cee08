package checkout

import (
	"fmt"

	"github.com/greensolartech/storefront/internal/cartview"
	"github.com/greensolartech/storefront/internal/modal"
)

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message the page shows once.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

func addedNotice(name string) Notice {
	return Notice{Level: NoticeSuccess, Message: fmt.Sprintf("«%s» додано до кошика!", name)}
}

var (
	clearedNotice   = Notice{Level: NoticeInfo, Message: "Кошик очищено"}
	emptyCartNotice = Notice{Level: NoticeError, Message: cartview.EmptyTitle}
)

// View is everything the page needs to redraw the cart after a gesture.
type View struct {
	State    modal.State            `json:"state"`
	Badge    cartview.Badge         `json:"badge"`
	List     cartview.ListView      `json:"list"`
	Checkout *cartview.CheckoutView `json:"checkout,omitempty"`
	Success  *cartview.SuccessView  `json:"success,omitempty"`
	Notices  []Notice               `json:"notices,omitempty"`
}
