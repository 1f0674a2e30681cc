package domain

type RaffleEvent interface {
	isEvent()
}

func (r RoundStarted) isEvent()   {}
func (r PlayerEntered) isEvent()  {}
func (r DrawRequested) isEvent()  {}
func (r DrawAborted) isEvent()    {}
func (r WinnerSelected) isEvent() {}

type RoundStarted struct {
	Id          string
	EntranceFee uint64
	Timestamp   int64
}

type PlayerEntered struct {
	Id      string
	Address string
	Amount  uint64
}

type DrawRequested struct {
	Id        string
	RequestId string
	Timestamp int64
}

type DrawAborted struct {
	Id        string
	Reason    string
	Timestamp int64
}

type WinnerSelected struct {
	Id         string
	Winner     string
	Prize      uint64
	RandomWord uint64
	Timestamp  int64
}
