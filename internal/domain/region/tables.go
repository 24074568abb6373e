package region

// cityToProvince demotes city and district names to their parent region. Names
// that exist in more than one province live in defaultAmbiguous instead.
var defaultCityToProvince = map[string]string{
	// 경기도
	"수원": "경기도", "수원시": "경기도", "성남": "경기도", "성남시": "경기도",
	"용인": "경기도", "용인시": "경기도", "고양": "경기도", "고양시": "경기도",
	"부천": "경기도", "부천시": "경기도", "안산": "경기도", "안산시": "경기도",
	"안양": "경기도", "안양시": "경기도", "평택": "경기도", "평택시": "경기도",
	"시흥": "경기도", "시흥시": "경기도", "김포": "경기도", "김포시": "경기도",
	"광명": "경기도", "광명시": "경기도", "이천": "경기도", "이천시": "경기도",
	"오산": "경기도", "오산시": "경기도", "의정부": "경기도", "의정부시": "경기도",
	"하남": "경기도", "하남시": "경기도", "구리": "경기도", "구리시": "경기도",
	"안성": "경기도", "안성시": "경기도", "포천": "경기도", "포천시": "경기도",
	"의왕": "경기도", "의왕시": "경기도", "양주": "경기도", "양주시": "경기도",
	"여주": "경기도", "여주시": "경기도", "양평": "경기도", "양평군": "경기도",
	"동두천": "경기도", "동두천시": "경기도", "과천": "경기도", "과천시": "경기도",
	"가평": "경기도", "가평군": "경기도", "연천": "경기도", "연천군": "경기도",
	"파주": "경기도", "파주시": "경기도", "남양주": "경기도", "남양주시": "경기도",
	"화성": "경기도", "화성시": "경기도", "군포": "경기도", "군포시": "경기도",
	"광주시": "경기도",

	// 서울특별시
	"강남": "서울특별시", "강남구": "서울특별시", "서초": "서울특별시", "서초구": "서울특별시",
	"송파": "서울특별시", "송파구": "서울특별시", "강동구": "서울특별시", "마포": "서울특별시",
	"마포구": "서울특별시", "용산": "서울특별시", "용산구": "서울특별시", "종로": "서울특별시",
	"종로구": "서울특별시", "성동구": "서울특별시", "광진구": "서울특별시", "동대문구": "서울특별시",
	"중랑구": "서울특별시", "성북구": "서울특별시", "강북구": "서울특별시", "도봉구": "서울특별시",
	"노원구": "서울특별시", "은평구": "서울특별시", "서대문구": "서울특별시", "양천구": "서울특별시",
	"구로구": "서울특별시", "금천구": "서울특별시", "영등포": "서울특별시", "영등포구": "서울특별시",
	"동작구": "서울특별시", "관악구": "서울특별시", "잠실": "서울특별시", "홍대": "서울특별시",

	// 부산광역시
	"해운대": "부산광역시", "해운대구": "부산광역시", "수영구": "부산광역시", "사하구": "부산광역시",
	"금정구": "부산광역시", "연제구": "부산광역시", "사상구": "부산광역시", "기장": "부산광역시",
	"기장군": "부산광역시", "영도구": "부산광역시", "부산진구": "부산광역시", "서면": "부산광역시",

	// 인천광역시
	"송도": "인천광역시", "부평": "인천광역시", "부평구": "인천광역시", "연수구": "인천광역시",
	"계양구": "인천광역시", "미추홀구": "인천광역시", "강화": "인천광역시", "강화군": "인천광역시",

	// 강원도
	"춘천": "강원도영서", "춘천시": "강원도영서", "원주": "강원도영서", "원주시": "강원도영서",
	"홍천": "강원도영서", "철원": "강원도영서", "화천": "강원도영서", "인제": "강원도영서",
	"강릉": "강원도영동", "강릉시": "강원도영동", "속초": "강원도영동", "속초시": "강원도영동",
	"동해": "강원도영동", "동해시": "강원도영동", "삼척": "강원도영동", "양양": "강원도영동",

	// 충청
	"청주": "충청북도", "청주시": "충청북도", "충주": "충청북도", "충주시": "충청북도",
	"제천": "충청북도", "천안": "충청남도", "천안시": "충청남도", "아산": "충청남도",
	"아산시": "충청남도", "공주": "충청남도", "보령": "충청남도", "서산": "충청남도",
	"홍성": "충청남도", "논산": "충청남도",

	// 전라
	"전주": "전북특별자치도", "전주시": "전북특별자치도", "익산": "전북특별자치도",
	"익산시": "전북특별자치도", "군산": "전북특별자치도", "군산시": "전북특별자치도",
	"정읍": "전북특별자치도", "남원": "전북특별자치도",
	"목포": "전라남도", "목포시": "전라남도", "여수": "전라남도", "여수시": "전라남도",
	"순천": "전라남도", "순천시": "전라남도", "광양": "전라남도", "나주": "전라남도",
	"무안": "전라남도",

	// 경상
	"포항": "경상북도", "포항시": "경상북도", "구미": "경상북도", "구미시": "경상북도",
	"경주": "경상북도", "경주시": "경상북도", "안동": "경상북도", "안동시": "경상북도",
	"김천": "경상북도", "영주": "경상북도",
	"창원": "경상남도", "창원시": "경상남도", "진해": "경상남도", "김해": "경상남도",
	"김해시": "경상남도", "거제": "경상남도", "거제시": "경상남도", "진주": "경상남도",
	"진주시": "경상남도", "양산": "경상남도", "통영": "경상남도", "마산": "경상남도",

	// 제주
	"서귀포": "제주특별자치도", "서귀포시": "제주특별자치도", "제주시": "제주특별자치도",
}

var defaultAliases = map[string]string{
	"서울": "서울특별시", "서울시": "서울특별시",
	"인천": "인천광역시", "인천시": "인천광역시",
	"경기": "경기도",
	"강원": "강원도", "강원특별자치도": "강원도",
	"충북": "충청북도", "충남": "충청남도",
	"대전": "대전광역시", "대전시": "대전광역시",
	"세종": "세종특별자치시", "세종시": "세종특별자치시",
	"전북": "전북특별자치도", "전라북도": "전북특별자치도",
	"전남": "전라남도",
	"전라": "전라도",
	"경북": "경상북도", "경남": "경상남도",
	"경상": "경상도",
	"대구": "대구광역시", "대구시": "대구광역시",
	"부산": "부산광역시", "부산시": "부산광역시",
	"울산": "울산광역시", "울산시": "울산광역시",
	"제주": "제주특별자치도", "제주도": "제주특별자치도",
	"영서": "강원도영서", "영동": "강원도영동",
}

// forecastRegionIDs maps canonical names to mid-range temperature region ids.
var defaultForecastRegionIDs = map[string]string{
	"서울특별시":   "11B10101",
	"인천광역시":   "11B20201",
	"경기도":     "11B00000",
	"충청북도":    "11C10000",
	"충청남도":    "11C20000",
	"대전광역시":   "11C20401",
	"세종특별자치시": "11C20404",
	"강원도영서":   "11D10000",
	"강원도영동":   "11D20000",
	"전북특별자치도": "11F10000",
	"전라남도":    "11F20000",
	"광주광역시":   "11F20501",
	"경상북도":    "11H10000",
	"경상남도":    "11H20000",
	"대구광역시":   "11H10701",
	"부산광역시":   "11H20201",
	"울산광역시":   "11H20101",
	"제주특별자치도": "11G00000",
}

type choice struct {
	keywords  []string
	canonical string
}

type ambiguity struct {
	question string
	choices  []choice
}

// Choices are matched in order, so longer keywords come before their fragments.
var defaultAmbiguous = map[string]ambiguity{
	"강원도": {
		question: "강원도는 영서/영동 중 어디야?",
		choices: []choice{
			{keywords: []string{"영서", "춘천", "원주", "서"}, canonical: "강원도영서"},
			{keywords: []string{"영동", "강릉", "속초", "동"}, canonical: "강원도영동"},
		},
	},
	"전라도": {
		question: "전북/전남 중 어디야?",
		choices: []choice{
			{keywords: []string{"전북", "북"}, canonical: "전북특별자치도"},
			{keywords: []string{"전남", "남"}, canonical: "전라남도"},
		},
	},
	"경상도": {
		question: "경북/경남 중 어디야?",
		choices: []choice{
			{keywords: []string{"경북", "북"}, canonical: "경상북도"},
			{keywords: []string{"경남", "남"}, canonical: "경상남도"},
		},
	},
	"광주": {
		question: "광주광역시야, 경기도 광주시야?",
		choices: []choice{
			{keywords: []string{"광역", "전라", "전남"}, canonical: "광주광역시"},
			{keywords: []string{"경기"}, canonical: "경기도"},
		},
	},
	"중구": {
		question: "어느 도시의 중구야? (서울/부산/인천/대구/대전/울산)",
		choices:  metroChoices("서울", "부산", "인천", "대구", "대전", "울산"),
	},
	"동구": {
		question: "어느 도시의 동구야? (부산/인천/대구/대전/울산/광주)",
		choices:  metroChoices("부산", "인천", "대구", "대전", "울산", "광주"),
	},
	"서구": {
		question: "어느 도시의 서구야? (부산/인천/대구/대전/광주)",
		choices:  metroChoices("부산", "인천", "대구", "대전", "광주"),
	},
	"남구": {
		question: "어느 도시의 남구야? (부산/대구/울산/광주)",
		choices:  metroChoices("부산", "대구", "울산", "광주"),
	},
	"강서구": {
		question: "서울 강서구야, 부산 강서구야?",
		choices:  metroChoices("서울", "부산"),
	},
}

var metroCities = map[string]string{
	"서울": "서울특별시",
	"부산": "부산광역시",
	"인천": "인천광역시",
	"대구": "대구광역시",
	"대전": "대전광역시",
	"울산": "울산광역시",
	"광주": "광주광역시",
}

func metroChoices(names ...string) []choice {
	out := make([]choice, 0, len(names))
	for _, name := range names {
		out = append(out, choice{keywords: []string{name}, canonical: metroCities[name]})
	}
	return out
}

// defaultLocations are the representative observation points per region with
// their grid cells, precomputed with ToGrid.
var defaultLocations = []Location{
	{Name: "서울", Canonical: "서울특별시", Lat: 37.5665, Lon: 126.9780, Grid: GridCell{X: 60, Y: 127}},
	{Name: "인천", Canonical: "인천광역시", Lat: 37.4563, Lon: 126.7052, Grid: GridCell{X: 55, Y: 124}},
	{Name: "수원", Canonical: "경기도", Lat: 37.2636, Lon: 127.0286, Grid: GridCell{X: 61, Y: 120}},
	{Name: "춘천", Canonical: "강원도영서", Lat: 37.8813, Lon: 127.7298, Grid: GridCell{X: 73, Y: 134}},
	{Name: "강릉", Canonical: "강원도영동", Lat: 37.7519, Lon: 128.8761, Grid: GridCell{X: 92, Y: 132}},
	{Name: "청주", Canonical: "충청북도", Lat: 36.6424, Lon: 127.4890, Grid: GridCell{X: 69, Y: 107}},
	{Name: "홍성", Canonical: "충청남도", Lat: 36.6013, Lon: 126.6608, Grid: GridCell{X: 55, Y: 106}},
	{Name: "대전", Canonical: "대전광역시", Lat: 36.3504, Lon: 127.3845, Grid: GridCell{X: 67, Y: 100}},
	{Name: "세종", Canonical: "세종특별자치시", Lat: 36.4800, Lon: 127.2890, Grid: GridCell{X: 66, Y: 103}},
	{Name: "전주", Canonical: "전북특별자치도", Lat: 35.8242, Lon: 127.1480, Grid: GridCell{X: 63, Y: 89}},
	{Name: "무안", Canonical: "전라남도", Lat: 34.8161, Lon: 126.4629, Grid: GridCell{X: 51, Y: 67}},
	{Name: "광주", Canonical: "광주광역시", Lat: 35.1595, Lon: 126.8526, Grid: GridCell{X: 58, Y: 74}},
	{Name: "안동", Canonical: "경상북도", Lat: 36.5684, Lon: 128.7294, Grid: GridCell{X: 91, Y: 106}},
	{Name: "창원", Canonical: "경상남도", Lat: 35.2280, Lon: 128.6811, Grid: GridCell{X: 91, Y: 77}},
	{Name: "대구", Canonical: "대구광역시", Lat: 35.8714, Lon: 128.6014, Grid: GridCell{X: 89, Y: 91}},
	{Name: "부산", Canonical: "부산광역시", Lat: 35.1796, Lon: 129.0756, Grid: GridCell{X: 98, Y: 76}},
	{Name: "울산", Canonical: "울산광역시", Lat: 35.5384, Lon: 129.3114, Grid: GridCell{X: 102, Y: 84}},
	{Name: "제주", Canonical: "제주특별자치도", Lat: 33.4996, Lon: 126.5312, Grid: GridCell{X: 53, Y: 38}},
}
