package categorization

import "github.com/FACorreiaa/family-ledger/internal/domain/common"

// DefaultKeywords is the built in suggestion table, in precedence order.
// Restaurants count as food.
func DefaultKeywords() []Keywords {
	return []Keywords{
		{Category: common.CategoryFood, Terms: []string{
			"tesco", "lidl", "aldi", "spar", "auchan", "penny", "coop", "cba",
			"élelmiszer", "pékség", "hentes", "zöldség",
			"étterem", "restaurant", "kávé", "kave", "cafe", "büfé", "bufe",
			"pizz", "mcdonald", "burger", "kebab", "wolt", "foodora",
		}},
		{Category: common.CategoryTransport, Terms: []string{
			"mol", "omv", "shell", "benzin", "dízel", "üzemanyag", "bkk", "máv",
			"volán", "parkolás", "útdíj", "bolt.eu", "uber",
		}},
		{Category: common.CategoryUtilities, Terms: []string{
			"elmű", "elmu", "émász", "emasz", "főtáv", "fotav", "vízmű", "vizmu",
			"digi", "telekom", "vodafone", "yettel", "mvm", "rezsi",
		}},
		{Category: common.CategoryShopping, Terms: []string{
			"h&m", "zara", "media markt", "ikea", "decathlon", "euronics",
			"douglas", "dm drogerie", "rossmann", "műszaki", "mömax", "emag",
		}},
		{Category: common.CategoryEntertainment, Terms: []string{
			"cinema", "mozi", "színház", "szinhaz", "netflix", "spotify",
			"koncert", "fesztivál", "google play", "hbo",
		}},
		{Category: common.CategoryHealth, Terms: []string{
			"gyógyszertár", "gyogyszert", "patika", "kórház", "korhaz", "orvos",
			"fogorvos", "optika",
		}},
	}
}
